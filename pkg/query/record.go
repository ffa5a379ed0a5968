package query

import (
	"math"
	"strings"
	"time"
)

// IDField is the key under which every store adapter exposes the document identifier.
const IDField = "id"

// DefaultTimestampFields are normalized on every record; when absent they take the epoch value.
var DefaultTimestampFields = []string{"createdAt", "updatedAt", "date"}

// Epoch is the instant used for absent timestamps.
var Epoch = time.Unix(0, 0).UTC()

// Record is a single document snapshot keyed by field name.
type Record map[string]any

// ID returns the store-assigned identifier, or "" when missing.
func (r Record) ID() string {
	if id, ok := r[IDField].(string); ok {
		return id
	}
	return ""
}

// Time returns the field as an instant when it holds one.
func (r Record) Time(field string) (time.Time, bool) {
	t, ok := r[field].(time.Time)
	return t, ok
}

// NormalizeTimestamp converts timestamp-like values into a UTC time.Time.
// Accepted shapes are time.Time, *time.Time, RFC3339 strings and maps holding
// exactly seconds/nanoseconds (or _seconds/_nanoseconds) as exported by document stores.
// Normalizing an already normalized value returns it unchanged.
func NormalizeTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case *time.Time:
		if t == nil {
			return Epoch, true
		}
		return t.UTC(), true
	case string:
		return parseTimestampString(t)
	case map[string]any:
		return timestampFromMap(t)
	case Record:
		return timestampFromMap(t)
	}
	return time.Time{}, false
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func timestampFromMap(m map[string]any) (time.Time, bool) {
	if len(m) != 2 {
		return time.Time{}, false
	}
	for _, keys := range [][2]string{{"seconds", "nanoseconds"}, {"_seconds", "_nanoseconds"}} {
		sec, okSec := m[keys[0]]
		nsec, okNsec := m[keys[1]]
		if !okSec || !okNsec {
			continue
		}
		s, okS := toFloat(sec)
		n, okN := toFloat(nsec)
		if !okS || !okN {
			return time.Time{}, false
		}
		return time.Unix(int64(s), int64(n)).UTC(), true
	}
	return time.Time{}, false
}

// normalizeRecord returns a shallow copy of rec with timestamp fields converted.
// Named timestamp fields that are absent or null become Epoch; strings are parsed
// only on named fields. The snapshot passed in is never modified.
func normalizeRecord(rec Record, timestampFields map[string]struct{}) Record {
	out := make(Record, len(rec)+len(timestampFields))
	for k, v := range rec {
		_, named := timestampFields[k]
		out[k] = normalizeValue(v, named)
	}
	for field := range timestampFields {
		if v, ok := out[field]; !ok || v == nil {
			out[field] = Epoch
		}
	}
	return out
}

func normalizeValue(v any, named bool) any {
	switch v.(type) {
	case time.Time, *time.Time, map[string]any, Record:
		if t, ok := NormalizeTimestamp(v); ok {
			return t
		}
	case string:
		if named {
			if t, ok := NormalizeTimestamp(v); ok {
				return t
			}
		}
	}
	return v
}

func timestampFieldSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// toFloat converts numeric kinds to float64. Booleans count as 1 and 0.
// NaN is reported as non-numeric.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
