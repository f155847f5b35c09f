package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"apiloader/internal/platform/store/sqlite"
)

// sqliteAdapter wraps sqlite.SQLite and implements TxRunner
type sqliteAdapter struct {
	s     *sqlite.SQLite
	trace traceHook
}

func newSQLiteAdapter(s *sqlite.SQLite, t QueryTracer, slowMs int) *sqliteAdapter {
	return &sqliteAdapter{s: s, trace: newTraceHook(t, slowMs)}
}

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.s == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.s.DB.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error { return a.s.Close() }

func (a *sqliteAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, a.s.DB, a.trace, q, args)
}

func (a *sqliteAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, a.s.DB, a.trace, q, args)
}

func (a *sqliteAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqlQueryRow(ctx, a.s.DB, a.trace, q, args)
}

func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlTxQuerier{tx: tx, trace: a.trace}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// conn is the part of *sql.DB and *sql.Tx the helpers need
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqlExec(ctx context.Context, c conn, h traceHook, q string, args []any) (CommandTag, error) {
	start := time.Now()
	res, err := c.ExecContext(ctx, q, args...)
	h.emit(ctx, q, args, start, err)
	if err != nil {
		return sqlTag{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sqlTag{}, err
	}
	return sqlTag{n: n}, nil
}

func sqlQuery(ctx context.Context, c conn, h traceHook, q string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := c.QueryContext(ctx, q, args...)
	h.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

func sqlQueryRow(ctx context.Context, c conn, h traceHook, q string, args []any) Row {
	start := time.Now()
	r := c.QueryRowContext(ctx, q, args...)
	return sqlRow{r: r, after: func(scanErr error) { h.emit(ctx, q, args, start, scanErr) }}
}

type sqlRow struct {
	r     *sql.Row
	after func(error)
}

func (x sqlRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
func (x sqlRows) Columns() []string {
	cols, err := x.r.Columns()
	if err != nil {
		return nil
	}
	return cols
}

// sqlTag renders like a pg command tag without the verb
type sqlTag struct{ n int64 }

func (t sqlTag) String() string      { return fmt.Sprintf("OK %d", t.n) }
func (t sqlTag) RowsAffected() int64 { return t.n }

type sqlTxQuerier struct {
	tx    *sql.Tx
	trace traceHook
}

func (t sqlTxQuerier) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, t.tx, t.trace, q, args)
}

func (t sqlTxQuerier) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, t.tx, t.trace, q, args)
}

func (t sqlTxQuerier) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqlQueryRow(ctx, t.tx, t.trace, q, args)
}
