package repo

import (
	"context"
	"strings"
	"time"

	"apiloader/internal/modkit/repokit"
	"apiloader/internal/services/ingest/domain"
)

func (sqlite) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// table qualifies with the schema only when one is given; in SQLite that is an attached database
func (s sqlite) table(def domain.TableDef) string {
	if sc := def.Schema(); sc != "" {
		return s.quote(sc) + "." + s.quote(def.Table())
	}
	return s.quote(def.Table())
}

func (sqlite) sqlType(t domain.ColumnType) string {
	switch t {
	case domain.TypeInteger:
		return "INTEGER"
	case domain.TypeFloat:
		return "REAL"
	case domain.TypeBoolean:
		return "BOOLEAN"
	case domain.TypeTimestamp:
		return "TIMESTAMP"
	case domain.TypeJSON:
		// JSON alone would get NUMERIC affinity and rewrite "1.50" as 1.5
		return "JSON_TEXT"
	}
	return "TEXT"
}

// compatible follows SQLite's type affinity rules on the declared type
func (sqlite) compatible(t domain.ColumnType, dbType string) bool {
	decl := strings.ToUpper(dbType)
	aff := affinity(decl)
	switch t {
	case domain.TypeString:
		return aff == "TEXT"
	case domain.TypeInteger:
		return aff == "INTEGER" || aff == "NUMERIC"
	case domain.TypeFloat:
		return aff == "REAL" || aff == "NUMERIC"
	case domain.TypeBoolean:
		return aff == "INTEGER" || aff == "NUMERIC"
	case domain.TypeTimestamp:
		return strings.Contains(decl, "TIME") || strings.Contains(decl, "DATE") || aff == "TEXT"
	case domain.TypeJSON:
		return aff == "TEXT"
	}
	return false
}

func affinity(decl string) string {
	switch {
	case strings.Contains(decl, "INT"):
		return "INTEGER"
	case strings.Contains(decl, "CHAR"), strings.Contains(decl, "CLOB"), strings.Contains(decl, "TEXT"):
		return "TEXT"
	case decl == "", strings.Contains(decl, "BLOB"):
		return "BLOB"
	case strings.Contains(decl, "REAL"), strings.Contains(decl, "FLOA"), strings.Contains(decl, "DOUB"):
		return "REAL"
	}
	return "NUMERIC"
}

// bind stores timestamps as RFC3339Nano UTC text so equal instants compare equal
func (sqlite) bind(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func (sqlite) preamble(domain.TableDef) []string { return nil }

const (
	sqliteColumnsSQL = `SELECT name, type FROM pragma_table_info(?2, ?1) ORDER BY cid`
	sqlitePKSQL      = `SELECT name FROM pragma_table_info(?2, ?1) WHERE pk > 0 ORDER BY pk`
)

func (sqlite) describe(ctx context.Context, q repokit.Queryer, def domain.TableDef) (domain.TableShape, error) {
	schema := def.Schema()
	if schema == "" {
		schema = "main"
	}
	return describeWith(ctx, q, sqliteColumnsSQL, sqlitePKSQL, schema, def.Table())
}
