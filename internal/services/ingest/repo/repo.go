// Package repo provides the SQL access the ingest loader needs on Postgres and SQLite
package repo

import (
	"context"
	"time"

	"apiloader/internal/modkit/repokit"
	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/store"
	"apiloader/internal/services/ingest/domain"
)

type (
	// SQL is a dialect aware binder for domain.TableRepo
	SQL     struct{ d dialect }
	queries struct {
		q repokit.Queryer
		d dialect
	}
)

// Bind implements repokit.Binder
func (b SQL) Bind(q repokit.Queryer) domain.TableRepo { return &queries{q: q, d: b.d} }

// Describe introspects the live table
func (r *queries) Describe(ctx context.Context, def domain.TableDef) (domain.TableShape, error) {
	shape, err := r.d.describe(ctx, r.q, def)
	return shape, perr.FromDBf(err, "describe %s", def.Name)
}

// Create runs CREATE TABLE IF NOT EXISTS for def
func (r *queries) Create(ctx context.Context, def domain.TableDef) error {
	for _, stmt := range r.d.preamble(def) {
		if _, err := r.q.Exec(ctx, stmt); err != nil {
			return perr.FromDBf(err, "prepare %s", def.Name)
		}
	}
	_, err := r.q.Exec(ctx, createSQL(r.d, def))
	return perr.FromDBf(err, "create %s", def.Name)
}

// Exists reports whether a row with key is stored
func (r *queries) Exists(ctx context.Context, def domain.TableDef, key []any) (bool, error) {
	args := make([]any, len(key))
	for i, k := range key {
		args[i] = r.d.bind(k)
	}
	n, err := store.Scalar[int64](ctx, r.q, existsSQL(r.d, def), args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert writes one row and returns the affected row count
func (r *queries) Upsert(ctx context.Context, def domain.TableDef, row domain.NormalizedRow, updatedAt time.Time) (int64, error) {
	args := make([]any, 0, len(def.Columns)+1)
	for _, c := range def.Columns {
		v, _ := row.Get(c.Name)
		args = append(args, r.d.bind(v))
	}
	if def.UpdatedAtColumn != "" {
		args = append(args, r.d.bind(updatedAt.UTC()))
	}
	tag, err := r.q.Exec(ctx, upsertSQL(r.d, def), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
