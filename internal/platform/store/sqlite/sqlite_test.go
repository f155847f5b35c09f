package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	got := DSN(Config{Path: "/tmp/x.db"})
	if !strings.HasPrefix(got, "/tmp/x.db?") || !strings.Contains(got, "busy_timeout(5000)") {
		t.Fatalf("DSN default = %q", got)
	}
	if got := DSN(Config{Path: MemoryPath, BusyTimeout: 250 * time.Millisecond}); !strings.Contains(got, "busy_timeout(250)") {
		t.Fatalf("DSN custom = %q", got)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpen_MemoryKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, Config{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, err := s.DB.ExecContext(ctx, `create table t (id integer primary key)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	// a second statement must see the same database
	var n int
	if err := s.DB.QueryRowContext(ctx, `select count(*) from t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
}

func TestOpen_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "loader.db")
	s, err := Open(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Path != path {
		t.Fatalf("Path = %q", s.Path)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var nilDB *SQLite
	if err := nilDB.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
