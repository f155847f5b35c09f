// Package normalize turns raw API records into flat typed rows following a table definition
package normalize

import (
	"errors"
	"fmt"

	"apiloader/internal/services/ingest/domain"
)

// Normalizer is stateless after construction and safe for concurrent use
type Normalizer struct {
	def      domain.TableDef
	names    []string
	defaults []any
}

var _ domain.Normalizer = (*Normalizer)(nil)

// New checks that every column type is known and every default coerces to its column type
func New(def domain.TableDef) (*Normalizer, error) {
	if len(def.Columns) == 0 {
		return nil, fmt.Errorf("normalize: table %q declares no columns", def.Name)
	}
	n := &Normalizer{def: def, names: def.ColumnNames(), defaults: make([]any, len(def.Columns))}
	for i, c := range def.Columns {
		if !c.Type.Valid() {
			return nil, fmt.Errorf("normalize: column %s: unknown type %q", c.Name, c.Type)
		}
		if c.Default == nil {
			continue
		}
		v, err := coerce(c.Default, c.Type)
		if err != nil {
			return nil, fmt.Errorf("normalize: column %s: default %v: %w", c.Name, c.Default, err)
		}
		n.defaults[i] = v
	}
	return n, nil
}

// Normalize maps one record onto the declared columns
func (n *Normalizer) Normalize(index int, rec domain.RawRecord) (domain.NormalizedRow, error) {
	obj, ok := rec.(map[string]any)
	if !ok {
		return domain.NormalizedRow{}, &domain.NormalizationError{
			Index:  index,
			Reason: domain.ReasonNotObject,
			Detail: fmt.Sprintf("record is %s, want object", describe(rec)),
		}
	}
	flat := flatten(obj)

	row := domain.NormalizedRow{Index: index, Columns: n.names, Values: make([]any, len(n.names))}
	for i, c := range n.def.Columns {
		raw := flat[c.SourcePath()]
		var v any
		if raw != nil {
			cv, err := coerce(raw, c.Type)
			switch {
			case errors.Is(err, errBlank):
			case err != nil:
				return domain.NormalizedRow{}, &domain.NormalizationError{
					Index: index, Column: c.Name, Reason: domain.ReasonCoercion, Detail: err.Error(),
				}
			default:
				v = cv
			}
		}
		if v == nil {
			v = n.defaults[i]
		}
		if v == nil && c.Required {
			return domain.NormalizedRow{}, &domain.NormalizationError{
				Index:  index,
				Column: c.Name,
				Reason: domain.ReasonMissing,
				Detail: fmt.Sprintf("source %q is missing or null", c.SourcePath()),
			}
		}
		row.Values[i] = v
	}
	return row, nil
}

// NormalizeAll normalizes recs in order; every record ends up in exactly one of the two results
func (n *Normalizer) NormalizeAll(recs []domain.RawRecord) ([]domain.NormalizedRow, []*domain.NormalizationError) {
	rows := make([]domain.NormalizedRow, 0, len(recs))
	var failed []*domain.NormalizationError
	for i, rec := range recs {
		row, err := n.Normalize(i, rec)
		if err != nil {
			var ne *domain.NormalizationError
			if !errors.As(err, &ne) {
				ne = &domain.NormalizationError{Index: i, Reason: domain.ReasonCoercion, Detail: err.Error()}
			}
			failed = append(failed, ne)
			continue
		}
		rows = append(rows, row)
	}
	return rows, failed
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	return "number"
}
