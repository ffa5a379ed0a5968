// Package codec holds the decoding helpers shared by the store adapters that
// keep documents as JSON text.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/mentneo/mentmine/pkg/query"
)

// ErrInvalidCollection is returned for collection names that cannot be used as identifiers.
var ErrInvalidCollection = errors.New("invalid collection name")

var collectionName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateCollectionName rejects names that are unsafe to splice into a statement,
// even after quoting.
func ValidateCollectionName(name string) error {
	if !collectionName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

// DecodeJSON decodes a JSON object into a record and sets its identifier.
// Integral numbers become int64, other numbers float64.
func DecodeJSON(id string, raw []byte) (query.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	rec := query.Record(convertNumbers(doc).(map[string]any))
	rec[query.IDField] = id
	return rec, nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, val := range t {
			t[k] = convertNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = convertNumbers(val)
		}
		return t
	}
	return v
}
