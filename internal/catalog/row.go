package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Row is a loaded record. Values are keyed by SQL column name.
type Row struct {
	Family Family
	ID     int64
	Values map[string]any
}

// Int64 reads a column as an integer id. NULL and non numeric values report false.
func (r Row) Int64(column string) (int64, bool) {
	if r.Values == nil {
		return 0, false
	}
	return ToInt64(r.Values[column])
}

// JSON renders the row with JSON field names, as clients submitted them.
func (r Row) JSON() map[string]any {
	out := map[string]any{"id": r.ID}
	t, err := Lookup(r.Family)
	if err != nil {
		for k, v := range r.Values {
			out[k] = v
		}
		return out
	}
	for field, col := range t.Columns {
		if v, ok := r.Values[col]; ok {
			out[field] = v
		}
	}
	return out
}

// ToInt64 coerces decoded JSON or driver values to an id.
// Fractional numbers and empty strings are rejected.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
