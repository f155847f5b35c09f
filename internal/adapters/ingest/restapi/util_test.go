package restapi

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"apiloader/internal/services/ingest/domain"
)

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"", 0, false},
		{"3", 3 * time.Second, true},
		{"-1", 0, false},
		{"soon", 0, false},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
	}
	for _, c := range cases {
		got, ok := parseRetryAfter(c.in, now)
		if got != c.want || ok != c.ok {
			t.Fatalf("parseRetryAfter(%q) = %v %v, want %v %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestBackoffAndJitter(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Options{BaseURL: "http://example.test", BackoffBase: time.Second, BackoffMax: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	c.jitter = func(d time.Duration) time.Duration { return d }
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for attempt, w := range want {
		if got := c.backoff(attempt); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := c.backoff(200); got != 5*time.Second {
		t.Fatalf("large attempt must not overflow, got %v", got)
	}

	for range 100 {
		if j := halfJitter(time.Second); j < 500*time.Millisecond || j >= time.Second {
			t.Fatalf("jitter %v outside [d/2, d)", j)
		}
	}
	if halfJitter(1) != 1 {
		t.Fatalf("tiny durations are not jittered")
	}
}

func TestEndpointAndNextURL(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Options{BaseURL: "https://api.example.com/v2/", CursorParam: "after"})
	if err != nil {
		t.Fatal(err)
	}
	first, err := c.endpointURL("/repos?sort=asc", map[string]string{"b": "2", "a": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if first != "https://api.example.com/v2/repos?a=1&b=2&sort=asc" {
		t.Fatalf("endpointURL = %q", first)
	}

	cases := map[string]string{
		"https://API.example.com/v2/p?x=1": "https://API.example.com/v2/p?x=1",
		"/v2/repos?page=2":                 "https://api.example.com/v2/repos?page=2",
		"abc123":                           "https://api.example.com/v2/repos?a=1&after=abc123&b=2&sort=asc",
	}
	for next, want := range cases {
		got, err := c.nextURL(first, next)
		if err != nil || got != want {
			t.Fatalf("nextURL(%q) = %q %v, want %q", next, got, err, want)
		}
	}

	for _, next := range []string{"https://other.example.com/p?x=1", "http://api.example.com/v2/p"} {
		_, err := c.nextURL(first, next)
		var fe *domain.ResponseFormatError
		if !errors.As(err, &fe) {
			t.Fatalf("nextURL(%q) err = %v, want ResponseFormatError", next, err)
		}
	}
}
