package domain

import (
	"context"
	"iter"
	"time"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context, p FetchParams) (LoadReport, error)
}

// Fetcher yields raw records lazily
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string) iter.Seq2[RawRecord, error]
}

// Normalizer turns raw records into typed rows
type Normalizer interface {
	Normalize(index int, rec RawRecord) (NormalizedRow, error)
	NormalizeAll(recs []RawRecord) ([]NormalizedRow, []*NormalizationError)
}

// RowValidator partitions rows into accepted and rejected
type RowValidator interface {
	Validate(rows []NormalizedRow) ValidationOutcome
}

// Loader writes the accepted batch
type Loader interface {
	EnsureSchema(ctx context.Context, def TableDef) error
	Upsert(ctx context.Context, def TableDef, rows []NormalizedRow) (LoadStats, error)
}

// TableRepo is the SQL surface the loader drives, bound to a connection or a transaction
type TableRepo interface {
	Describe(ctx context.Context, def TableDef) (TableShape, error)
	Create(ctx context.Context, def TableDef) error
	Exists(ctx context.Context, def TableDef, key []any) (bool, error)
	// Upsert returns the number of rows the statement wrote: 0 when the stored row already matched
	Upsert(ctx context.Context, def TableDef, row NormalizedRow, updatedAt time.Time) (int64, error)
}
