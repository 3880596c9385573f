// Package types provides the row types returned by the pgquery client.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one record of a result set: column names in result order, each
// paired with its value.
type Row struct {
	columns []string
	values  []any
}

// NewRow creates a row from parallel column and value slices.
// Missing values are treated as NULL.
func NewRow(columns []string, values []any) Row {
	vals := make([]any, len(columns))
	copy(vals, values)
	return Row{columns: columns, values: vals}
}

// Len returns the number of columns in the row
func (r Row) Len() int {
	return len(r.columns)
}

// Columns returns the column names in result order
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the values in column order
func (r Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the value of the named column.
// When a name occurs more than once the last occurrence wins.
func (r Row) Get(column string) (any, bool) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Value returns the value of the named column, or nil if it is absent
func (r Row) Value(column string) any {
	v, _ := r.Get(column)
	return v
}

// String returns the named column formatted as a string.
// NULL and missing columns yield "".
func (r Row) String(column string) string {
	v, ok := r.Get(column)
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// Map returns the row as a plain map. Column order is lost.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, col := range r.columns {
		m[col] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the row as a JSON object whose keys follow column order.
// A repeated column name is written once, with its last value.
func (r Row) MarshalJSON() ([]byte, error) {
	last := make(map[string]int, len(r.columns))
	for i, col := range r.columns {
		last[col] = i
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, col := range r.columns {
		if last[col] != i {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %s: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
