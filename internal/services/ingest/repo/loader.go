package repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"apiloader/internal/modkit/repokit"
	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/logger"
	"apiloader/internal/platform/store"
	"apiloader/internal/services/ingest/domain"
)

// Loader implements domain.Loader on top of a TableRepo binder
type Loader struct {
	db   repokit.TxRunner
	repo repokit.Binder[domain.TableRepo]
	d    dialect
	now  func() time.Time
}

var _ domain.Loader = (*Loader)(nil)

// NewLoader binds a loader to db speaking dialect d
func NewLoader(db repokit.TxRunner, d store.Dialect) (*Loader, error) {
	if db == nil {
		return nil, errors.New("repo: nil database")
	}
	dd, err := dialectFor(d)
	if err != nil {
		return nil, err
	}
	return &Loader{db: db, repo: SQL{d: dd}, d: dd, now: time.Now}, nil
}

// EnsureSchema creates the table when absent, otherwise checks it against def
func (l *Loader) EnsureSchema(ctx context.Context, def domain.TableDef) error {
	if err := def.Check(); err != nil {
		return err
	}
	r := repokit.MustBind(l.repo, l.db)
	shape, err := r.Describe(ctx, def)
	if err != nil {
		return err
	}
	if !shape.Exists {
		if err := r.Create(ctx, def); err != nil {
			return err
		}
		logger.C(ctx).Info().Str("dialect", string(l.d.name())).Msg("table created")
		return nil
	}
	if problems := compareShape(l.d, def, shape); len(problems) > 0 {
		return &domain.SchemaMismatchError{Table: def.Name, Problems: problems}
	}
	return nil
}

// compareShape lists every declared column that is missing or has an incompatible type,
// and a key mismatch
func compareShape(d dialect, def domain.TableDef, shape domain.TableShape) []domain.SchemaProblem {
	var problems []domain.SchemaProblem
	check := func(name string, t domain.ColumnType) {
		live, ok := shape.Columns[name]
		switch {
		case !ok:
			problems = append(problems, domain.SchemaProblem{Column: name, Detail: "column is missing"})
		case !d.compatible(t, live):
			problems = append(problems, domain.SchemaProblem{
				Column: name,
				Detail: fmt.Sprintf("type %s cannot hold %s values", live, t),
			})
		}
	}
	for _, c := range def.Columns {
		check(c.Name, c.Type)
	}
	if def.UpdatedAtColumn != "" {
		check(def.UpdatedAtColumn, domain.TypeTimestamp)
	}
	if !sameSet(shape.PrimaryKey, def.PrimaryKey) {
		problems = append(problems, domain.SchemaProblem{
			Detail: fmt.Sprintf("primary key is %v, want %v", shape.PrimaryKey, def.PrimaryKey),
		})
	}
	return problems
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Upsert writes rows in one transaction. Any row failure rolls back the batch and is
// returned as a *domain.LoadError. An empty batch opens no transaction
func (l *Loader) Upsert(ctx context.Context, def domain.TableDef, rows []domain.NormalizedRow) (domain.LoadStats, error) {
	var stats domain.LoadStats
	if len(rows) == 0 {
		return stats, nil
	}
	now := l.now().UTC()

	err := repokit.WithTx(ctx, l.db, func(q repokit.Queryer) error {
		r := l.repo.Bind(q)
		for _, row := range rows {
			key := row.Key(def.PrimaryKey)
			exists, err := r.Exists(ctx, def, key)
			if err != nil {
				return &domain.LoadError{Index: row.Index, Key: key, Err: perr.FromDB(err, "check key")}
			}
			n, err := r.Upsert(ctx, def, row, now)
			if err != nil {
				return &domain.LoadError{Index: row.Index, Key: key, Err: perr.AttachFieldFromPg(perr.FromDB(err, "upsert"))}
			}
			switch {
			case !exists:
				stats.Inserted++
			case n > 0:
				stats.Updated++
			default:
				stats.Unchanged++
			}
		}
		return nil
	})
	if err != nil {
		var le *domain.LoadError
		if errors.As(err, &le) {
			return domain.LoadStats{}, err
		}
		return domain.LoadStats{}, perr.FromDBf(err, "load %s", def.Name)
	}
	logger.C(ctx).Debug().
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("unchanged", stats.Unchanged).
		Msg("batch committed")
	return stats, nil
}
