package repokit

import (
	"context"
	"strconv"

	"apiloader/internal/platform/store"
)

// BeginHook runs at the start of a transaction with the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps a TxRunner and runs hooks before fn inside the same tx.
// No hooks returns inner unchanged
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	if len(hooks) == 0 {
		return inner
	}
	return hookedTx{inner: inner, hooks: hooks}
}

type hookedTx struct {
	inner TxRunner
	hooks []BeginHook
}

// Tx starts a tx on inner then runs all hooks before fn
func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.inner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// delegate so hookedTx satisfies TxRunner

func (h hookedTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return h.inner.Exec(ctx, sql, args...)
}

func (h hookedTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return h.inner.Query(ctx, sql, args...)
}

func (h hookedTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return h.inner.QueryRow(ctx, sql, args...)
}

// StatementTimeout returns a hook that bounds every statement in the tx (postgres only)
func StatementTimeout(ms int) BeginHook {
	return func(ctx context.Context, q Queryer) error {
		_, err := q.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", strconv.Itoa(max(ms, 0)))
		return err
	}
}
