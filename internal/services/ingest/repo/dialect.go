package repo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"apiloader/internal/modkit/repokit"
	"apiloader/internal/platform/store"
	"apiloader/internal/services/ingest/domain"
)

// dialect hides the SQL differences between the supported backends
type dialect interface {
	name() store.Dialect
	placeholder(n int) string
	quote(ident string) string
	table(def domain.TableDef) string
	sqlType(t domain.ColumnType) string
	// distinct renders "a differs from b" with NULL treated as a value
	distinct(a, b string) string
	// compatible reports whether a live column type can hold values of t
	compatible(t domain.ColumnType, dbType string) bool
	bind(v any) any
	describe(ctx context.Context, q repokit.Queryer, def domain.TableDef) (domain.TableShape, error)
	// preamble returns statements run before CREATE TABLE
	preamble(def domain.TableDef) []string
}

func dialectFor(d store.Dialect) (dialect, error) {
	switch d {
	case store.DialectPostgres:
		return postgres{}, nil
	case store.DialectSQLite:
		return sqlite{}, nil
	}
	return nil, fmt.Errorf("repo: unsupported dialect %q", d)
}

func placeholders(d dialect, from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.placeholder(from + i)
	}
	return strings.Join(ps, ", ")
}

func quoteAll(d dialect, names []string) string {
	qs := make([]string, len(names))
	for i, n := range names {
		qs[i] = d.quote(n)
	}
	return strings.Join(qs, ", ")
}

// createSQL declares every column, NOT NULL on key and required columns, and the primary key
func createSQL(d dialect, def domain.TableDef) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.table(def))
	b.WriteString(" (\n")
	for _, c := range def.Columns {
		b.WriteString("\t")
		b.WriteString(d.quote(c.Name))
		b.WriteString(" ")
		b.WriteString(d.sqlType(c.Type))
		if c.Required || def.IsKey(c.Name) {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	if def.UpdatedAtColumn != "" {
		b.WriteString("\t")
		b.WriteString(d.quote(def.UpdatedAtColumn))
		b.WriteString(" ")
		b.WriteString(d.sqlType(domain.TypeTimestamp))
		b.WriteString(",\n")
	}
	b.WriteString("\tPRIMARY KEY (")
	b.WriteString(quoteAll(d, def.PrimaryKey))
	b.WriteString(")\n)")
	return b.String()
}

func existsSQL(d dialect, def domain.TableDef) string {
	conds := make([]string, len(def.PrimaryKey))
	for i, k := range def.PrimaryKey {
		conds[i] = d.quote(k) + " = " + d.placeholder(i+1)
	}
	return "SELECT COUNT(*) FROM " + d.table(def) + " WHERE " + strings.Join(conds, " AND ")
}

// upsertSQL inserts every declared column plus the bookkeeping column. On a key conflict the
// non-key columns are overwritten only when at least one of them differs
func upsertSQL(d dialect, def domain.TableDef) string {
	cols := def.ColumnNames()
	if def.UpdatedAtColumn != "" {
		cols = append(cols, def.UpdatedAtColumn)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.table(def))
	b.WriteString(" AS t (")
	b.WriteString(quoteAll(d, cols))
	b.WriteString(")\nVALUES (")
	b.WriteString(placeholders(d, 1, len(cols)))
	b.WriteString(")\nON CONFLICT (")
	b.WriteString(quoteAll(d, def.PrimaryKey))
	b.WriteString(")")

	var sets, diffs []string
	for _, c := range def.Columns {
		if def.IsKey(c.Name) {
			continue
		}
		q := d.quote(c.Name)
		sets = append(sets, q+" = excluded."+q)
		diffs = append(diffs, d.distinct("t."+q, "excluded."+q))
	}
	if len(sets) == 0 {
		b.WriteString(" DO NOTHING")
		return b.String()
	}
	if def.UpdatedAtColumn != "" {
		q := d.quote(def.UpdatedAtColumn)
		sets = append(sets, q+" = excluded."+q)
	}
	b.WriteString(" DO UPDATE SET\n\t")
	b.WriteString(strings.Join(sets, ",\n\t"))
	b.WriteString("\nWHERE ")
	b.WriteString(strings.Join(diffs, "\n\tOR "))
	return b.String()
}

// postgres serves pgx; identifiers go through pgx.Identifier
type postgres struct{}

func (postgres) name() store.Dialect         { return store.DialectPostgres }
func (postgres) placeholder(n int) string    { return "$" + strconv.Itoa(n) }
func (postgres) distinct(a, b string) string { return a + " IS DISTINCT FROM " + b }
func (postgres) bind(v any) any              { return v }

// sqlite serves modernc.org/sqlite
type sqlite struct{}

func (sqlite) name() store.Dialect         { return store.DialectSQLite }
func (sqlite) placeholder(int) string      { return "?" }
func (sqlite) distinct(a, b string) string { return a + " IS NOT " + b }
