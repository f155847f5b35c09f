package modkit

import (
	"testing"

	"apiloader/internal/platform/store"
)

func TestDepsFromStore(t *testing.T) {
	t.Parallel()

	d := Deps{}.FromStore(nil)
	if d.DB != nil || d.Dialect != "" {
		t.Fatalf("nil store should leave deps empty: %+v", d)
	}

	s := &store.Store{Dialect: store.DialectSQLite}
	if got := (Deps{}).FromStore(s); got.Dialect != store.DialectSQLite {
		t.Fatalf("Dialect = %q", got.Dialect)
	}
}
