package domain

import (
	"errors"
	"fmt"
	"strings"

	perr "apiloader/internal/platform/errors"
)

// ErrSequenceConsumed is yielded when a fetch sequence is ranged a second time
var ErrSequenceConsumed = errors.New("fetch sequence already consumed")

// ClientRequestError is a non-retryable 4xx answer from the API
type ClientRequestError struct {
	Status   int
	URL      string
	BodyTail string
}

func (e *ClientRequestError) Error() string {
	if e.BodyTail == "" {
		return fmt.Sprintf("api request rejected: %d %s", e.Status, e.URL)
	}
	return fmt.Sprintf("api request rejected: %d %s: %s", e.Status, e.URL, e.BodyTail)
}

// Code classifies the error for perr.CodeOf
func (e *ClientRequestError) Code() perr.ErrorCode { return perr.CodeFromHTTPStatus(e.Status) }

// FetchExhaustedError reports that every allowed attempt failed
type FetchExhaustedError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *FetchExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("api fetch gave up after %d attempts: %s: %v", e.Attempts, e.URL, e.LastErr)
	}
	return fmt.Sprintf("api fetch gave up after %d attempts: %s: last status %d", e.Attempts, e.URL, e.LastStatus)
}

func (e *FetchExhaustedError) Unwrap() error { return e.LastErr }

// Code classifies the error for perr.CodeOf
func (e *FetchExhaustedError) Code() perr.ErrorCode {
	if e.LastStatus == 429 {
		return perr.ErrorCodeTooManyRequests
	}
	return perr.ErrorCodeUnavailable
}

// ResponseFormatError is a body that is neither a JSON array nor a data envelope
type ResponseFormatError struct {
	URL    string
	Reason string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected api response from %s: %s", e.URL, e.Reason)
}

// Code classifies the error for perr.CodeOf
func (e *ResponseFormatError) Code() perr.ErrorCode { return perr.ErrorCodeJSON }

// Normalization failure reasons
const (
	ReasonNotObject = "not_object"
	ReasonMissing   = "missing_required"
	ReasonCoercion  = "coercion"
)

// NormalizationError is a per-record failure; it never halts a run
type NormalizationError struct {
	Index  int
	Column string
	Reason string
	Detail string
}

func (e *NormalizationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("record %d: %s: %s", e.Index, e.Reason, e.Detail)
	}
	return fmt.Sprintf("record %d: column %s: %s: %s", e.Index, e.Column, e.Reason, e.Detail)
}

// Code classifies the error for perr.CodeOf
func (e *NormalizationError) Code() perr.ErrorCode { return perr.ErrorCodeValidation }

// SchemaProblem is one incompatibility between a TableDef and the live table
type SchemaProblem struct {
	Column string
	Detail string
}

// SchemaMismatchError lists every incompatibility found
type SchemaMismatchError struct {
	Table    string
	Problems []SchemaProblem
}

func (e *SchemaMismatchError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		if p.Column == "" {
			parts[i] = p.Detail
			continue
		}
		parts[i] = p.Column + ": " + p.Detail
	}
	return fmt.Sprintf("table %s does not match definition: %s", e.Table, strings.Join(parts, "; "))
}

// Code classifies the error for perr.CodeOf
func (e *SchemaMismatchError) Code() perr.ErrorCode { return perr.ErrorCodeSchema }

// LoadError is a row-level write failure; the batch was rolled back
type LoadError struct {
	Index int
	Key   []any
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load row %d key %v: %v", e.Index, e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Code classifies the cause through the platform mapping
func (e *LoadError) Code() perr.ErrorCode {
	if c := perr.CodeOf(e.Err); c != perr.ErrorCodeUnknown {
		return c
	}
	return perr.ErrorCodeDB
}

// Retryable reports whether rerunning the batch may succeed
func (e *LoadError) Retryable() bool { return perr.IsRetryable(e.Err) }

// StageError tags a halting error with the stage it came from
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(string(e.Stage)), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the failing stage in err, if any
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
