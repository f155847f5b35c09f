package domain

import (
	"strconv"
	"strings"

	perr "apiloader/internal/platform/errors"
)

// Check reports the first structural problem of t as an invalid-argument error
func (t TableDef) Check() error {
	if strings.TrimSpace(t.Table()) == "" {
		return perr.InvalidArgf("table definition: empty table name")
	}
	if len(t.Columns) == 0 {
		return perr.InvalidArgf("table %s: no columns declared", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns)+1)
	for _, c := range t.Columns {
		if err := c.check(); err != nil {
			return perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "table %s", t.Name), c.Name)
		}
		if seen[c.Name] {
			return perr.WithField(perr.InvalidArgf("table %s: duplicate column %s", t.Name, c.Name), c.Name)
		}
		seen[c.Name] = true
	}
	if len(t.PrimaryKey) == 0 {
		return perr.InvalidArgf("table %s: no primary key", t.Name)
	}
	inKey := make(map[string]bool, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		if !seen[k] {
			return perr.WithField(perr.InvalidArgf("table %s: primary key column %s is not declared", t.Name, k), k)
		}
		if inKey[k] {
			return perr.WithField(perr.InvalidArgf("table %s: primary key repeats %s", t.Name, k), k)
		}
		inKey[k] = true
	}
	if u := t.UpdatedAtColumn; u != "" && seen[u] {
		return perr.WithField(perr.InvalidArgf("table %s: updated_at column %s clashes with a declared column", t.Name, u), u)
	}
	return nil
}

func (c ColumnSpec) check() error {
	if strings.TrimSpace(c.Name) == "" {
		return perr.InvalidArgf("column with empty name")
	}
	if !c.Type.Valid() {
		return perr.InvalidArgf("column %s: unknown type %q", c.Name, c.Type)
	}
	if len(c.Enum) > 0 {
		switch c.Type {
		case TypeString:
			for _, v := range c.Enum {
				if strings.ContainsRune(v, '\'') {
					return perr.InvalidArgf("column %s: enum value %q contains a single quote", c.Name, v)
				}
			}
		case TypeInteger:
			for _, v := range c.Enum {
				if _, err := strconv.ParseInt(v, 10, 64); err != nil {
					return perr.InvalidArgf("column %s: enum value %q is not an integer", c.Name, v)
				}
			}
		default:
			return perr.InvalidArgf("column %s: enum is not supported on %s columns", c.Name, c.Type)
		}
	}
	if c.Min != nil || c.Max != nil {
		if !c.Type.Numeric() {
			return perr.InvalidArgf("column %s: min/max are not supported on %s columns", c.Name, c.Type)
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return perr.InvalidArgf("column %s: min %v is greater than max %v", c.Name, *c.Min, *c.Max)
		}
	}
	return nil
}
