// Package repokit binds domain repos to a store seam and runs them inside transactions
package repokit

import (
	"context"

	"apiloader/internal/platform/store"
)

// Queryer is the read and write surface a bound repo sees
type Queryer = store.RowQuerier

// TxRunner is a Queryer that can also open a transaction
type TxRunner = store.TxRunner

// Binder produces a repo of type T bound to q, which is either the pool or a tx
type Binder[T any] interface {
	Bind(q Queryer) T
}

// BindFunc adapts a plain constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds q, panicking on a nil seam since that is a wiring bug
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind on nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn inside one transaction on tx; fn's error rolls it back
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}
