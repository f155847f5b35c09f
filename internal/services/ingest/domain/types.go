// Package domain holds the data model and ports of the ingest pipeline
package domain

import (
	"strings"
	"time"
)

// RawRecord is one decoded API record; numbers are kept as json.Number.
// Typed as any so a non-object array element can reach the normalizer and be rejected there
type RawRecord = any

// ColumnType is the declared type of a destination column
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeJSON      ColumnType = "json"
)

// Valid reports whether t is one of the known column types
func (t ColumnType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeTimestamp, TypeJSON:
		return true
	}
	return false
}

// Numeric reports whether range checks apply to t
func (t ColumnType) Numeric() bool { return t == TypeInteger || t == TypeFloat }

// ColumnSpec maps one record field to one destination column
type ColumnSpec struct {
	Name     string     `yaml:"name"`
	Source   string     `yaml:"source"`
	Type     ColumnType `yaml:"type"`
	Required bool       `yaml:"required"`
	Default  any        `yaml:"default"`
	Enum     []string   `yaml:"enum"`
	Min      *float64   `yaml:"min"`
	Max      *float64   `yaml:"max"`
}

// SourcePath returns the dot path looked up in the flattened record
func (c ColumnSpec) SourcePath() string {
	if c.Source != "" {
		return c.Source
	}
	return c.Name
}

// TableDef declares the destination table
type TableDef struct {
	// Name may be schema qualified as schema.table
	Name       string       `yaml:"name"`
	Columns    []ColumnSpec `yaml:"columns"`
	PrimaryKey []string     `yaml:"primary_key"`
	// UpdatedAtColumn is a timestamp column managed by the loader, empty to disable
	UpdatedAtColumn string `yaml:"updated_at_column"`
}

// Schema and Table split Name on the first dot
func (t TableDef) Schema() string {
	if i := strings.IndexByte(t.Name, '.'); i >= 0 {
		return t.Name[:i]
	}
	return ""
}

// Table returns the unqualified table name
func (t TableDef) Table() string {
	if i := strings.IndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Column returns the spec for name
func (t TableDef) Column(name string) (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// IsKey reports whether name is part of the primary key
func (t TableDef) IsKey(name string) bool {
	for _, k := range t.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// ColumnNames returns declared column names in order
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// NormalizedRow is a flat typed row. Values hold string, int64, float64, bool, time.Time or nil,
// aligned with Columns
type NormalizedRow struct {
	Index   int
	Columns []string
	Values  []any
}

// Get returns the value of column name
func (r NormalizedRow) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Key returns the primary key values in pk order
func (r NormalizedRow) Key(pk []string) []any {
	out := make([]any, len(pk))
	for i, k := range pk {
		out[i], _ = r.Get(k)
	}
	return out
}

// Violation is one failed data-quality rule
type Violation struct {
	Rule    Rule
	Column  string
	Message string
}

// ValidationResult is a row with its verdict
type ValidationResult struct {
	Row        NormalizedRow
	Accepted   bool
	Violations []Violation
}

// Rule names a data-quality rule
type Rule string

const (
	RuleRequired   Rule = "required"
	RuleType       Rule = "type"
	RuleRange      Rule = "range"
	RuleEnum       Rule = "enum"
	RulePrimaryKey Rule = "primary_key"
	RuleUniqueKey  Rule = "unique_key"
)

// AllRules is every rule in evaluation order
var AllRules = []Rule{RuleRequired, RuleType, RuleRange, RuleEnum, RulePrimaryKey, RuleUniqueKey}

// ValidationOutcome partitions a batch
type ValidationOutcome struct {
	Accepted   []NormalizedRow
	Rejected   []ValidationResult
	Duplicates int
}

// LoadStats counts upsert outcomes
type LoadStats struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Total is the number of rows written or confirmed
func (s LoadStats) Total() int { return s.Inserted + s.Updated + s.Unchanged }

// Stage is a pipeline state
type Stage string

const (
	StagePending     Stage = "PENDING"
	StageFetching    Stage = "FETCHING"
	StageNormalizing Stage = "NORMALIZING"
	StageValidating  Stage = "VALIDATING"
	StageLoading     Stage = "LOADING"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// Terminal reports whether s ends a run
func (s Stage) Terminal() bool { return s == StageDone || s == StageFailed }

// FetchParams selects what a run fetches
type FetchParams struct {
	Endpoint string
	Query    map[string]string
}

// Sample is a short diagnostic kept in the report
type Sample struct {
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Counts are the per-run tallies
type Counts struct {
	Fetched         int `json:"fetched"`
	Normalized      int `json:"normalized"`
	NormalizeFailed int `json:"normalize_failed"`
	Accepted        int `json:"accepted"`
	Rejected        int `json:"rejected"`
	Duplicates      int `json:"duplicates"`
	Inserted        int `json:"inserted"`
	Updated         int `json:"updated"`
	Unchanged       int `json:"unchanged"`
	Failed          int `json:"failed"`
}

// LoadReport summarizes one run. It is built once and returned by value
type LoadReport struct {
	RunID      string    `json:"run_id"`
	Table      string    `json:"table"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	State      Stage     `json:"state"`
	DryRun     bool      `json:"dry_run"`
	Counts     Counts    `json:"counts"`

	NormalizeSamples []Sample `json:"normalize_samples,omitempty"`
	RejectSamples    []Sample `json:"reject_samples,omitempty"`
}

// Consistent checks the count invariants of a DONE run
func (r LoadReport) Consistent() bool {
	c := r.Counts
	if c.Fetched != c.Normalized+c.NormalizeFailed || c.Normalized != c.Accepted+c.Rejected {
		return false
	}
	if r.DryRun {
		return true
	}
	return c.Accepted == c.Inserted+c.Updated+c.Unchanged
}

// TableShape is what introspection found for a table. Columns maps name to the database type
type TableShape struct {
	Exists     bool
	Columns    map[string]string
	PrimaryKey []string
}
