package repo

import (
	"context"

	"apiloader/internal/modkit/repokit"
	"apiloader/internal/platform/store"
	"apiloader/internal/services/ingest/domain"

	"github.com/jackc/pgx/v5"
)

func (postgres) quote(ident string) string { return pgx.Identifier{ident}.Sanitize() }

func (postgres) table(def domain.TableDef) string {
	if s := def.Schema(); s != "" {
		return pgx.Identifier{s, def.Table()}.Sanitize()
	}
	return pgx.Identifier{def.Table()}.Sanitize()
}

func (postgres) sqlType(t domain.ColumnType) string {
	switch t {
	case domain.TypeInteger:
		return "BIGINT"
	case domain.TypeFloat:
		return "DOUBLE PRECISION"
	case domain.TypeBoolean:
		return "BOOLEAN"
	case domain.TypeTimestamp:
		return "TIMESTAMPTZ"
	case domain.TypeJSON:
		return "JSONB"
	}
	return "TEXT"
}

// pgFamilies lists the information_schema data types each column type accepts
var pgFamilies = map[domain.ColumnType][]string{
	domain.TypeString:    {"text", "character varying", "character"},
	domain.TypeInteger:   {"bigint", "integer", "smallint", "numeric"},
	domain.TypeFloat:     {"double precision", "real", "numeric"},
	domain.TypeBoolean:   {"boolean"},
	domain.TypeTimestamp: {"timestamp with time zone", "timestamp without time zone"},
	domain.TypeJSON:      {"jsonb", "json", "text"},
}

func (postgres) compatible(t domain.ColumnType, dbType string) bool {
	for _, f := range pgFamilies[t] {
		if f == dbType {
			return true
		}
	}
	return false
}

func (postgres) preamble(def domain.TableDef) []string {
	if s := def.Schema(); s != "" {
		return []string{"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{s}.Sanitize()}
	}
	return nil
}

const (
	pgColumnsSQL = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND table_name = $2
		ORDER BY ordinal_position`

	pgPrimaryKeySQL = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = COALESCE(NULLIF($1, ''), current_schema())
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`
)

func (postgres) describe(ctx context.Context, q repokit.Queryer, def domain.TableDef) (domain.TableShape, error) {
	return describeWith(ctx, q, pgColumnsSQL, pgPrimaryKeySQL, def.Schema(), def.Table())
}

type liveColumn struct {
	name   string
	dbType string
}

func scanColumn(r store.Row) (liveColumn, error) {
	var c liveColumn
	err := r.Scan(&c.name, &c.dbType)
	return c, err
}

func scanName(r store.Row) (string, error) {
	var s string
	err := r.Scan(&s)
	return s, err
}

// describeWith runs a column query and a key query that both take (schema, table)
func describeWith(ctx context.Context, q repokit.Queryer, colsSQL, pkSQL, schema, table string) (domain.TableShape, error) {
	cols, err := store.Many(ctx, q, scanColumn, colsSQL, schema, table)
	if err != nil {
		return domain.TableShape{}, err
	}
	shape := domain.TableShape{Exists: len(cols) > 0, Columns: make(map[string]string, len(cols))}
	if !shape.Exists {
		return shape, nil
	}
	for _, c := range cols {
		shape.Columns[c.name] = c.dbType
	}
	shape.PrimaryKey, err = store.Many(ctx, q, scanName, pkSQL, schema, table)
	if err != nil {
		return domain.TableShape{}, err
	}
	return shape, nil
}
