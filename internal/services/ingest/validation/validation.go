// Package validation applies the data-quality rules to a normalized batch
package validation

import (
	"fmt"
	"slices"
	"strings"

	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/validate"
	"apiloader/internal/services/ingest/domain"
)

// Option configures a Validator
type Option func(*Validator) error

// WithRules enables only the given rules. An empty list keeps every rule on
func WithRules(rules ...domain.Rule) Option {
	return func(v *Validator) error {
		if len(rules) == 0 {
			return nil
		}
		enabled := make(map[domain.Rule]bool, len(rules))
		for _, r := range rules {
			if !slices.Contains(domain.AllRules, r) {
				return perr.WithField(perr.InvalidArgf("validation: unknown rule %q", r), string(r))
			}
			enabled[r] = true
		}
		v.enabled = enabled
		return nil
	}
}

// Validator is immutable after New
type Validator struct {
	def     domain.TableDef
	cols    []columnRule
	enabled map[domain.Rule]bool
}

var _ domain.RowValidator = (*Validator)(nil)

// New compiles the rules of def. A malformed definition is a configuration error
func New(def domain.TableDef, opts ...Option) (*Validator, error) {
	if err := def.Check(); err != nil {
		return nil, err
	}
	v := &Validator{def: def, cols: compile(def)}
	v.enabled = make(map[domain.Rule]bool, len(domain.AllRules))
	for _, r := range domain.AllRules {
		v.enabled[r] = true
	}
	for _, o := range opts {
		if err := o(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Enabled reports whether rule r is active
func (v *Validator) Enabled(r domain.Rule) bool { return v.enabled[r] }

// Validate partitions rows. Per-row rules run first, then key uniqueness among the survivors;
// for a repeated key the last occurrence wins and earlier ones are rejected as unique_key
func (v *Validator) Validate(rows []domain.NormalizedRow) domain.ValidationOutcome {
	var out domain.ValidationOutcome
	passed := make([]domain.NormalizedRow, 0, len(rows))
	for _, row := range rows {
		if viol := v.check(row); len(viol) > 0 {
			out.Rejected = append(out.Rejected, domain.ValidationResult{Row: row, Violations: viol})
			continue
		}
		passed = append(passed, row)
	}

	if !v.enabled[domain.RuleUniqueKey] {
		out.Accepted = passed
		return out
	}

	last := make(map[string]int, len(passed))
	for i, row := range passed {
		last[keyString(row.Key(v.def.PrimaryKey))] = i
	}
	for i, row := range passed {
		if last[keyString(row.Key(v.def.PrimaryKey))] == i {
			out.Accepted = append(out.Accepted, row)
			continue
		}
		out.Duplicates++
		out.Rejected = append(out.Rejected, domain.ValidationResult{
			Row: row,
			Violations: []domain.Violation{{
				Rule:    domain.RuleUniqueKey,
				Column:  strings.Join(v.def.PrimaryKey, ","),
				Message: fmt.Sprintf("duplicate key %s superseded by a later record", formatKey(row.Key(v.def.PrimaryKey))),
			}},
		})
	}
	return out
}

// check runs every enabled per-row rule and collects all violations
func (v *Validator) check(row domain.NormalizedRow) []domain.Violation {
	var viol []domain.Violation
	add := func(rule domain.Rule, col, msg string) {
		viol = append(viol, domain.Violation{Rule: rule, Column: col, Message: msg})
	}
	for _, c := range v.cols {
		val, _ := row.Get(c.spec.Name)
		if val == nil {
			if c.key && v.enabled[domain.RulePrimaryKey] {
				add(domain.RulePrimaryKey, c.spec.Name, c.spec.Name+" is part of the primary key and must be set")
			} else if c.spec.Required && v.enabled[domain.RuleRequired] {
				add(domain.RuleRequired, c.spec.Name, c.spec.Name+" is required")
			}
			continue
		}
		if !typeOK(c.spec.Type, val) {
			if v.enabled[domain.RuleType] {
				add(domain.RuleType, c.spec.Name, typeMessage(c.spec, val))
			}
			continue
		}
		if c.rangeTag != "" && v.enabled[domain.RuleRange] {
			if msg, ok := validate.Var(c.spec.Name, val, c.rangeTag); !ok {
				add(domain.RuleRange, c.spec.Name, msg)
			}
		}
		if c.enumTag != "" && v.enabled[domain.RuleEnum] {
			if msg, ok := validate.Var(c.spec.Name, val, c.enumTag); !ok {
				add(domain.RuleEnum, c.spec.Name, msg)
			}
		}
	}
	return viol
}

// keyString is an injective rendering of a key tuple; %#v keeps 1 and "1" apart
func keyString(key []any) string {
	var b strings.Builder
	for i, k := range key {
		if i > 0 {
			b.WriteByte(0)
		}
		fmt.Fprintf(&b, "%#v", k)
	}
	return b.String()
}

func formatKey(key []any) string {
	parts := make([]string, len(key))
	for i, k := range key {
		parts[i] = fmt.Sprint(k)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
