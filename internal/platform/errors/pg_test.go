package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pg(code, col string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ColumnName: col}
}

func TestDBErrorCodePostgres(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23502", ErrorCodeValidation},
		{"23514", ErrorCodeValidation},
		{"22001", ErrorCodeInvalidArgument},
		{"22P02", ErrorCodeInvalidArgument},
		{"42804", ErrorCodeSchema},
		{"42703", ErrorCodeSchema},
		{"42P01", ErrorCodeSchema},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("exec: %w", pg(c.code, ""))
		if got := DBErrorCode(wrapped); got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestDBErrorCodeText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg  string
		want ErrorCode
	}{
		{"UNIQUE constraint failed: items.id", ErrorCodeDuplicateKey},
		{"NOT NULL constraint failed: items.name", ErrorCodeValidation},
		{"no such table: items", ErrorCodeSchema},
		{"table items has no column named extra", ErrorCodeSchema},
		{"database is locked (5) (SQLITE_BUSY)", ErrorCodeUnavailable},
		{"disk I/O error", ErrorCodeDB},
	}
	for _, c := range cases {
		if got := DBErrorCode(stderrs.New(c.msg)); got != c.want {
			t.Fatalf("DBErrorCode(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestFromDB(t *testing.T) {
	t.Parallel()

	if FromDB(nil, "x") != nil || FromDBf(nil, "x %d", 1) != nil {
		t.Fatalf("nil should pass through")
	}

	err := FromDBf(pg("23505", ""), "upsert %s", "items")
	if !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("FromDBf code = %v", CodeOf(err))
	}
	if _, ok := ExtractPgError(err); !ok {
		t.Fatalf("ExtractPgError should find the wrapped PgError")
	}
	if !IsSQLState(err, "23505") || IsSQLState(err, "23502") {
		t.Fatalf("IsSQLState mismatch")
	}
}

func TestAttachFieldFromPg(t *testing.T) {
	t.Parallel()

	err := AttachFieldFromPg(FromDB(pg("23502", "name"), "insert"))
	if e, ok := As(err); !ok || e.Field() != "name" {
		t.Fatalf("expected field name, got %+v", e)
	}

	noCol := FromDB(pg("23505", ""), "insert")
	if AttachFieldFromPg(noCol) != noCol {
		t.Fatalf("no column should return error unchanged")
	}

	plain := stderrs.New("plain")
	if AttachFieldFromPg(plain) != plain {
		t.Fatalf("foreign error should pass through")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("x: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
		{"serialization", pg("40001", ""), true},
		{"deadlock", Wrap(pg("40P01", ""), ErrorCodeDB, "tx"), true},
		{"unique", pg("23505", ""), false},
		{"commit text", stderrs.New("commit unexpectedly resulted in rollback"), true},
		{"sqlite busy", stderrs.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"other", stderrs.New("syntax error"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("%s: IsRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}
