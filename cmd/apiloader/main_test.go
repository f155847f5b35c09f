package main

import "testing"

func TestParamFlag(t *testing.T) {
	t.Parallel()
	p := paramFlag{}
	for _, s := range []string{"state=open", " per_page =50", "q=a=b"} {
		if err := p.Set(s); err != nil {
			t.Fatalf("Set(%q): %v", s, err)
		}
	}
	if p["state"] != "open" || p["per_page"] != "50" || p["q"] != "a=b" {
		t.Fatalf("params = %v", p)
	}
	for _, bad := range []string{"novalue", "=x"} {
		if err := p.Set(bad); err == nil {
			t.Fatalf("Set(%q) accepted", bad)
		}
	}
}
