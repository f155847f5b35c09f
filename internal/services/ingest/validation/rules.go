package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"apiloader/internal/services/ingest/domain"
)

// columnRule holds the precompiled validator tags of one column
type columnRule struct {
	spec     domain.ColumnSpec
	pos      int
	key      bool
	rangeTag string
	enumTag  string
}

func compile(def domain.TableDef) []columnRule {
	out := make([]columnRule, len(def.Columns))
	for i, c := range def.Columns {
		out[i] = columnRule{
			spec:     c,
			pos:      i,
			key:      def.IsKey(c.Name),
			rangeTag: rangeTag(c),
			enumTag:  enumTag(c),
		}
	}
	return out
}

func rangeTag(c domain.ColumnSpec) string {
	var parts []string
	if c.Min != nil {
		parts = append(parts, "gte="+bound(c.Type, *c.Min, math.Ceil))
	}
	if c.Max != nil {
		parts = append(parts, "lte="+bound(c.Type, *c.Max, math.Floor))
	}
	return strings.Join(parts, ",")
}

// bound renders a limit the validator can parse for the column kind.
// Integer columns round fractional limits inward since the validator reads them with ParseInt
func bound(t domain.ColumnType, v float64, round func(float64) float64) string {
	if t != domain.TypeInteger {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	r := round(v)
	switch {
	case r >= math.MaxInt64:
		return strconv.FormatInt(math.MaxInt64, 10)
	case r <= math.MinInt64:
		return strconv.FormatInt(math.MinInt64, 10)
	}
	return strconv.FormatInt(int64(r), 10)
}

// tagEscaper hides the validator's tag separators inside enum values
var tagEscaper = strings.NewReplacer(",", "0x2C", "|", "0x7C")

func enumTag(c domain.ColumnSpec) string {
	if len(c.Enum) == 0 {
		return ""
	}
	vals := make([]string, len(c.Enum))
	for i, v := range c.Enum {
		if c.Type == domain.TypeString && (v == "" || strings.ContainsAny(v, " \t\n")) {
			v = "'" + v + "'"
		}
		vals[i] = tagEscaper.Replace(v)
	}
	return "oneof=" + strings.Join(vals, " ")
}

// typeOK reports whether v has the Go type a normalized value of t carries
func typeOK(t domain.ColumnType, v any) bool {
	switch v.(type) {
	case string:
		return t == domain.TypeString || t == domain.TypeJSON
	case int64:
		return t == domain.TypeInteger
	case float64:
		return t == domain.TypeFloat
	case bool:
		return t == domain.TypeBoolean
	case time.Time:
		return t == domain.TypeTimestamp
	}
	return false
}

func typeMessage(c domain.ColumnSpec, v any) string {
	return fmt.Sprintf("%s must be %s, got %T", c.Name, c.Type, v)
}
