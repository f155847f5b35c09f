package store

import (
	"context"
	"errors"
	"testing"
)

func TestSQLiteAdapter_TxCommitAndRollback(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	seed(t, s.DB)
	ctx := context.Background()

	err := s.DB.Tx(ctx, func(q RowQuerier) error {
		ct, err := q.Exec(ctx, `update people set name = ? where id = ?`, "grace", 1)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			t.Errorf("RowsAffected = %d", ct.RowsAffected())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("commit tx: %v", err)
	}

	boom := errors.New("boom")
	err = s.DB.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `insert into people (id, name) values (?, ?)`, 3, "linus"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	n, err := Scalar[int64](ctx, s.DB, `select count(*) from people`)
	if err != nil || n != 2 {
		t.Fatalf("rollback did not discard insert: n=%d err=%v", n, err)
	}
	name, err := Scalar[string](ctx, s.DB, `select name from people where id = 1`)
	if err != nil || name != "grace" {
		t.Fatalf("commit lost: %q %v", name, err)
	}
}

func TestSQLiteAdapter_UpsertRowsAffected(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	seed(t, s.DB)
	ctx := context.Background()

	const upsert = `insert into people (id, name) values (?, ?)
		on conflict (id) do update set name = excluded.name
		where people.name is not excluded.name`

	same, err := s.DB.Exec(ctx, upsert, 1, "ada")
	if err != nil || same.RowsAffected() != 0 {
		t.Fatalf("identical upsert affected %v, %v", same, err)
	}
	changed, err := s.DB.Exec(ctx, upsert, 1, "ada2")
	if err != nil || changed.RowsAffected() != 1 {
		t.Fatalf("changed upsert affected %v, %v", changed, err)
	}
	if changed.String() != "OK 1" {
		t.Fatalf("tag String = %q", changed.String())
	}
}

func TestSQLiteAdapter_TracesStatements(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	rec := &recTracer{}
	a := s.DB.(*sqliteAdapter)
	a.trace = newTraceHook(rec, 1)

	ctx := context.Background()
	if _, err := a.Exec(ctx, `create table t (id integer)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
	var n int
	_ = a.QueryRow(ctx, `select count(*) from t`).Scan(&n)
	if _, err := a.Query(ctx, `select * from nope`); err == nil {
		t.Fatalf("expected query error")
	}

	if len(rec.events) != 3 || rec.events[2].Err == nil {
		t.Fatalf("events = %+v", rec.events)
	}
}
