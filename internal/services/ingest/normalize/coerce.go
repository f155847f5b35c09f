package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"apiloader/internal/services/ingest/domain"
)

var errBlank = errors.New("blank")

// timestamp layouts tried in order; zone-less layouts are read as UTC
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var boolWords = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "0": false,
}

// coerce converts a decoded JSON value (or a YAML default) into the Go type of t.
// errBlank means the value is an empty string for a non text type and counts as null
func coerce(v any, t domain.ColumnType) (any, error) {
	switch t {
	case domain.TypeString:
		return toString(v)
	case domain.TypeInteger:
		return toInt(v)
	case domain.TypeFloat:
		return toFloat(v)
	case domain.TypeBoolean:
		return toBool(v)
	case domain.TypeTimestamp:
		return toTime(v)
	case domain.TypeJSON:
		return toJSON(v)
	}
	return nil, fmt.Errorf("unknown column type %q", t)
}

func toString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return CleanText(x), nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case map[string]any, []any:
		s, err := toJSON(x)
		if err != nil {
			return nil, err
		}
		return CleanText(s.(string)), nil
	}
	return nil, fmt.Errorf("cannot use %T as string", v)
}

func toInt(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		return intFromText(x.String())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, errBlank
		}
		return intFromText(s)
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		return intFromFloat(x, strconv.FormatFloat(x, 'g', -1, 64))
	}
	return nil, fmt.Errorf("cannot use %T as integer", v)
}

// intFromText accepts decimal integers, zero fractions and exponents ("7.0", "1e3")
// as long as the value is an exact int64
func intFromText(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if !decimalText(s) {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if !r.Num().IsInt64() {
		return nil, fmt.Errorf("%s overflows int64", s)
	}
	return r.Num().Int64(), nil
}

// decimalText is [sign] digits [. digits] [e [sign] digits] with a small exponent
func decimalText(s string) bool {
	mant, exp, hasExp := strings.Cut(strings.ToLower(s), "e")
	mant = strings.TrimLeft(mant, "+-")
	whole, frac, _ := strings.Cut(mant, ".")
	if whole == "" && frac == "" {
		return false
	}
	for _, part := range []string{whole, frac} {
		if strings.Trim(part, "0123456789") != "" {
			return false
		}
	}
	if !hasExp {
		return true
	}
	e, err := strconv.Atoi(exp)
	return err == nil && e >= -maxIntExponent && e <= maxIntExponent
}

// maxIntExponent keeps big.Rat parsing cheap; int64 needs at most 19 digits
const maxIntExponent = 400

func intFromFloat(f float64, text string) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%s is not an integer", text)
	}
	// 2^63 is the first float64 outside int64
	if f < -9.223372036854775808e18 || f >= 9.223372036854775808e18 {
		return nil, fmt.Errorf("%s overflows int64", text)
	}
	return int64(f), nil
}

func toFloat(v any) (any, error) {
	var (
		f    float64
		err  error
		text string
	)
	switch x := v.(type) {
	case json.Number:
		text = x.String()
		f, err = x.Float64()
	case string:
		text = strings.TrimSpace(x)
		if text == "" {
			return nil, errBlank
		}
		f, err = strconv.ParseFloat(text, 64)
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		f, text = x, strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return nil, fmt.Errorf("cannot use %T as float", v)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%q is not a finite number", text)
	}
	return f, nil
}

func toBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if s == "" {
			return nil, errBlank
		}
		if b, ok := boolWords[s]; ok {
			return b, nil
		}
		return nil, fmt.Errorf("%q is not a boolean", x)
	case json.Number:
		return boolFromNumber(x.String())
	case int:
		return boolFromNumber(strconv.Itoa(x))
	case int64:
		return boolFromNumber(strconv.FormatInt(x, 10))
	case float64:
		return boolFromNumber(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return nil, fmt.Errorf("cannot use %T as boolean", v)
}

func boolFromNumber(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	switch {
	case err != nil:
	case f == 0:
		return false, nil
	case f == 1:
		return true, nil
	}
	return nil, fmt.Errorf("number %s is not 0 or 1", s)
}

func toTime(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, errBlank
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%q is not a recognised timestamp", x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return time.Unix(n, 0).UTC(), nil
		}
		f, err := x.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s is not a unix timestamp", x)
		}
		return unixFloat(f), nil
	case int:
		return time.Unix(int64(x), 0).UTC(), nil
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case float64:
		return unixFloat(x), nil
	}
	return nil, fmt.Errorf("cannot use %T as timestamp", v)
}

func unixFloat(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func toJSON(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		v = t.UTC().Format(time.RFC3339Nano)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}
