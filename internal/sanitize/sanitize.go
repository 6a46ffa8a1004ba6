// Package sanitize strips semantically-absent fields from documents before
// they are written to the store, which rejects explicit null values.
package sanitize

import (
	"encoding/json"
	"fmt"
)

// Clean returns v with every null-valued field removed, recursing through
// objects and arrays. Non-container values pass through unchanged. Clean is
// idempotent: Clean(Clean(v)) == Clean(v).
func Clean(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = Clean(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			out = append(out, Clean(val))
		}
		return out
	default:
		return v
	}
}

// Document marshals v and returns it as a cleaned generic document, ready for
// a store write. v must marshal to a JSON object.
func Document(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	cleaned, _ := Clean(doc).(map[string]any)
	return cleaned, nil
}

// MarshalDocument returns the cleaned JSON encoding of v.
func MarshalDocument(v any) ([]byte, error) {
	doc, err := Document(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
