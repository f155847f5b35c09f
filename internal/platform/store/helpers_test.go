package store

import (
	"context"
	"errors"
	"testing"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: "sqlite", SQLite: SQLiteConfig{Path: ":memory:"}})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, q RowQuerier) {
	t.Helper()
	ctx := context.Background()
	if _, err := q.Exec(ctx, `create table people (id integer primary key, name text not null)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i, name := range []string{"ada", "zoe"} {
		if _, err := q.Exec(ctx, `insert into people (id, name) values (?, ?)`, i+1, name); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	seed(t, s.DB)

	n, err := Scalar[int64](context.Background(), s.DB, `select count(*) from people`)
	if err != nil || n != 2 {
		t.Fatalf("Scalar = %d, %v", n, err)
	}

	if _, err := Scalar[string](context.Background(), s.DB, `select name from people where id = ?`, 99); err == nil {
		t.Fatalf("expected no-rows error")
	}
}

func TestMany(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	seed(t, s.DB)

	names, err := Many(context.Background(), s.DB, func(r Row) (string, error) {
		var id int
		var name string
		err := r.Scan(&id, &name)
		return name, err
	}, `select id, name from people order by id`)
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(names) != 2 || names[0] != "ada" || names[1] != "zoe" {
		t.Fatalf("Many = %v", names)
	}

	boom := errors.New("boom")
	if _, err := Many(context.Background(), s.DB, func(Row) (int, error) { return 0, boom },
		`select id from people`); !errors.Is(err, boom) {
		t.Fatalf("scanner error not propagated: %v", err)
	}

	if _, err := Many(context.Background(), s.DB, func(Row) (int, error) { return 0, nil },
		`select id from missing_table`); err == nil {
		t.Fatalf("expected query error")
	}
}

func TestMaps(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	seed(t, s.DB)

	rows, err := Maps(context.Background(), s.DB, `select id, name from people order by id`)
	if err != nil {
		t.Fatalf("Maps: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Maps len = %d", len(rows))
	}
	if rows[1]["name"] != "zoe" || rows[1]["id"] != int64(2) {
		t.Fatalf("Maps row = %#v", rows[1])
	}
}
