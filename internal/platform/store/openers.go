package store

import (
	"context"
	"fmt"
	"time"

	"apiloader/internal/platform/store/pg"
	"apiloader/internal/platform/store/sqlite"
)

// sleep is swapped in tests
var sleep = func(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// openPG opens a pgx pool, waits for it to answer, and wraps it with the adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  cfg.AppName,
	}, nil)
	if err != nil {
		return nil, err
	}

	maxAttempts := cfg.PG.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p, tracerFor(cfg.PG.LogSQL, s, "pg"), cfg.PG.SlowQueryMs), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Msg("postgres not ready")
		sleep(ctx, backoff)
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}

// openSQLite opens the embedded database; there is nothing to wait for
func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	db, err := sqlite.Open(ctx, sqlite.Config{
		Path:        cfg.SQLite.Path,
		BusyTimeout: cfg.SQLite.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	return newSQLiteAdapter(db, tracerFor(cfg.SQLite.LogSQL, s, "sqlite"), cfg.SQLite.SlowQueryMs), nil
}

func tracerFor(enabled bool, s *Store, component string) QueryTracer {
	if !enabled {
		return nil
	}
	return Tracer(s.Log, component)
}
