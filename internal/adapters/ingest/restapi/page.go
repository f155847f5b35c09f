package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"apiloader/internal/services/ingest/domain"
)

// decodePage accepts a JSON array of records or an envelope {"data": [...], "next": ...}.
// Numbers stay json.Number so integers keep full precision
func decodePage(src string, body []byte) ([]domain.RawRecord, string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, "", &domain.ResponseFormatError{URL: src, Reason: "invalid json: " + err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, "", &domain.ResponseFormatError{URL: src, Reason: "trailing data after json document"}
	}

	switch v := doc.(type) {
	case []any:
		return v, "", nil
	case map[string]any:
		raw, ok := v["data"]
		if !ok {
			return nil, "", &domain.ResponseFormatError{URL: src, Reason: "object without a data array"}
		}
		data, ok := raw.([]any)
		if !ok {
			return nil, "", &domain.ResponseFormatError{URL: src, Reason: fmt.Sprintf("data is %s, want array", kind(raw))}
		}
		next, err := nextValue(v["next"])
		if err != nil {
			return nil, "", &domain.ResponseFormatError{URL: src, Reason: err.Error()}
		}
		return data, next, nil
	default:
		return nil, "", &domain.ResponseFormatError{URL: src, Reason: fmt.Sprintf("top level %s, want array or object", kind(doc))}
	}
}

func nextValue(v any) (string, error) {
	switch n := v.(type) {
	case nil:
		return "", nil
	case string:
		return n, nil
	case json.Number:
		return n.String(), nil
	default:
		return "", fmt.Errorf("next is %s, want string", kind(v))
	}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
