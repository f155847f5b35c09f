package store

import (
	"time"

	"apiloader/internal/platform/logger"
)

// Config selects a driver and carries per backend settings
type Config struct {
	AppName string

	// Driver is "postgres" or "sqlite"
	Driver string

	PG     PGConfig
	SQLite SQLiteConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs, zero means default
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// SQLiteConfig configures the embedded sqlite backend
type SQLiteConfig struct {
	// Path is a file path or ":memory:"
	Path        string
	BusyTimeout time.Duration
	LogSQL      bool
	SlowQueryMs int
}

// Option adjusts a Store before its backend is opened
type Option func(*Store) error

// WithLogger routes connect retries and sql tracing to log
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
