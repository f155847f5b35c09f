package module

import (
	"testing"

	"apiloader/internal/platform/testkit"
)

type RunPort interface{ Run() int }

type runImpl struct{ v int }

func (r runImpl) Run() int { return r.v }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string   { return m.name }
func (m fakeModule) Ports() PortSet { return m.ports }

func TestPortsOf(t *testing.T) {
	t.Parallel()

	type bundle struct {
		Runner RunPort
		Count  int
		hidden RunPort
	}

	cases := []struct {
		name  string
		ports any
		ok    bool
		want  int
	}{
		{"nil ports", nil, false, 0},
		{"direct", RunPort(runImpl{v: 1}), true, 1},
		{"struct field", bundle{Runner: runImpl{v: 2}}, true, 2},
		{"pointer bundle", &bundle{Runner: runImpl{v: 4}}, true, 4},
		{"nil pointer bundle", (*bundle)(nil), false, 0},
		{"unexported only", bundle{hidden: runImpl{v: 3}}, false, 0},
		{"non struct", 5, false, 0},
	}
	for _, c := range cases {
		got, ok := PortsOf[RunPort](fakeModule{name: c.name, ports: c.ports})
		if ok != c.ok {
			t.Fatalf("%s: ok = %v, want %v", c.name, ok, c.ok)
		}
		if ok && got.Run() != c.want {
			t.Fatalf("%s: Run() = %d, want %d", c.name, got.Run(), c.want)
		}
	}
}

func TestMustPortsOf(t *testing.T) {
	t.Parallel()

	m := fakeModule{name: "ingest", ports: struct{ Runner RunPort }{runImpl{v: 9}}}
	if got := MustPortsOf[RunPort](m); got.Run() != 9 {
		t.Fatalf("MustPortsOf = %d", got.Run())
	}
	testkit.MustPanic(t, func() { _ = MustPortsOf[RunPort](fakeModule{name: "empty"}) })
}
