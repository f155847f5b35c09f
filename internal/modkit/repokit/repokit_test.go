package repokit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"apiloader/internal/platform/store"
	"apiloader/internal/platform/testkit"
)

// fakeTx records statements and runs fn inline
type fakeTx struct {
	sqls  []string
	args  [][]any
	txs   int
	txErr error
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	return nil, nil
}

func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row        { return nil }

func (f *fakeTx) Tx(_ context.Context, fn func(q Queryer) error) error {
	f.txs++
	if f.txErr != nil {
		return f.txErr
	}
	return fn(f)
}

func TestBinder(t *testing.T) {
	t.Parallel()

	b := BindFunc[string](func(q Queryer) string {
		if q == nil {
			return "nil"
		}
		return "bound"
	})
	if got := MustBind[string](b, &fakeTx{}); got != "bound" {
		t.Fatalf("MustBind = %q", got)
	}
	testkit.MustPanic(t, func() { _ = MustBind[string](b, nil) })
}

func TestWithBeginHooks_RunsHooksInsideTx(t *testing.T) {
	t.Parallel()

	inner := &fakeTx{}
	if WithBeginHooks(inner) != TxRunner(inner) {
		t.Fatalf("no hooks should return inner unchanged")
	}

	var order []string
	hooked := WithBeginHooks(inner,
		func(ctx context.Context, q Queryer) error { order = append(order, "h1"); return nil },
		StatementTimeout(1500),
	)
	err := WithTx(context.Background(), hooked, func(q Queryer) error {
		order = append(order, "fn")
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if inner.txs != 1 || len(order) != 2 || order[0] != "h1" || order[1] != "fn" {
		t.Fatalf("order = %v txs = %d", order, inner.txs)
	}
	if len(inner.sqls) != 1 || !strings.Contains(inner.sqls[0], "statement_timeout") || inner.args[0][0] != "1500" {
		t.Fatalf("statement timeout not applied: %v %v", inner.sqls, inner.args)
	}

	// delegates
	_, _ = hooked.Exec(context.Background(), "select 1")
	if len(inner.sqls) != 2 {
		t.Fatalf("Exec not delegated")
	}
}

func TestWithBeginHooks_HookErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	called := false
	hooked := WithBeginHooks(&fakeTx{}, func(context.Context, Queryer) error { return boom })
	err := hooked.Tx(context.Background(), func(Queryer) error { called = true; return nil })
	if !errors.Is(err, boom) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

type guardStub struct{ err error }

func (g guardStub) Guard(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected deadline")
	}
	return g.err
}

func TestGuard(t *testing.T) {
	t.Parallel()

	if err := Guard(context.Background(), guardStub{}); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if err := Guard(context.Background(), nil); err == nil {
		t.Fatalf("nil store should fail")
	}
	boom := errors.New("down")
	if err := Guard(context.Background(), guardStub{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("Guard err = %v", err)
	}
}
