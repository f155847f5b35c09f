// Package sqlite opens an embedded database through modernc.org/sqlite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

// MemoryPath selects a private in-memory database
const MemoryPath = ":memory:"

// Config configures the database handle
type Config struct {
	// Path is a file path or MemoryPath
	Path string
	// BusyTimeout bounds how long a writer waits on a lock, default 5s
	BusyTimeout time.Duration
}

// SQLite owns the database handle
type SQLite struct {
	DB   *sql.DB
	Path string
}

// DSN renders the driver connection string with pragmas applied per connection
func DSN(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", cfg.Path, busy.Milliseconds())
}

// Open opens and pings the database.
// An in-memory database lives as long as its one connection, so the pool is pinned to a single conn
func Open(ctx context.Context, cfg Config) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: empty path")
	}
	db, err := sql.Open("sqlite", DSN(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Path == MemoryPath {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &SQLite{DB: db, Path: cfg.Path}, nil
}

// Close closes the handle
func (s *SQLite) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
