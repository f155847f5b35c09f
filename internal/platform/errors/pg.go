package errors

// Database error helpers: SQLSTATE mapping for pgx errors plus the text fallbacks
// needed for the sqlite driver, which reports failures as plain strings

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the loader distinguishes
const (
	pgErrUniqueViolation           = "23505"
	pgErrNotNullViolation          = "23502"
	pgErrCheckViolation            = "23514"
	pgErrStringDataRightTruncation = "22001"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrDatatypeMismatch          = "42804"
	pgErrUndefinedColumn           = "42703"
	pgErrUndefinedTable            = "42P01"

	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
	pgErrLockNotAvailable     = "55P03"
	pgErrCannotConnectNow     = "57P03"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// DBErrorCode maps a database error to an ErrorCode.
// Postgres errors map by SQLSTATE; everything else is classified from the message text
func DBErrorCode(err error) ErrorCode {
	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return ErrorCodeDuplicateKey
		case pgErrNotNullViolation, pgErrCheckViolation:
			return ErrorCodeValidation
		case pgErrStringDataRightTruncation, pgErrInvalidTextRepresentation:
			return ErrorCodeInvalidArgument
		case pgErrDatatypeMismatch, pgErrUndefinedColumn, pgErrUndefinedTable:
			return ErrorCodeSchema
		case pgErrCannotConnectNow:
			return ErrorCodeUnavailable
		}
		return ErrorCodeDB
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "unique constraint failed"):
		return ErrorCodeDuplicateKey
	case strings.Contains(s, "not null constraint failed"), strings.Contains(s, "check constraint failed"):
		return ErrorCodeValidation
	case strings.Contains(s, "no such table"), strings.Contains(s, "no such column"), strings.Contains(s, "has no column named"):
		return ErrorCodeSchema
	case strings.Contains(s, "database is locked"), strings.Contains(s, "database is busy"):
		return ErrorCodeUnavailable
	}
	return ErrorCodeDB
}

// FromDB wraps a database error with a mapped ErrorCode and message. nil stays nil
func FromDB(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, DBErrorCode(err), msg)
}

// FromDBf is the formatted variant of FromDB
func FromDBf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return Wrapf(err, DBErrorCode(err), format, a...)
}

// AttachFieldFromPg enriches an error with the column name reported by Postgres.
// Returns the original error if no column is reported
func AttachFieldFromPg(err error) error {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return err
	}
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
		return WithField(err, col)
	}
	return err
}

// IsRetryable reports whether a database error is a transient condition where
// rerunning the whole transaction may succeed. Local cancellation is never retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrLockNotAvailable, pgErrCannotConnectNow:
			return true
		default:
			return false
		}
	}

	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "canceling statement due to lock timeout"),
		strings.Contains(s, "database is locked"),
		strings.Contains(s, "database is busy"):
		return true
	default:
		return false
	}
}
