// Package table holds the tabular form of provider records.
//
// A Table is an ordered list of Records plus the union of their column
// names in first-seen order. Row positions are implicit, so every
// concatenation yields rows numbered from zero again.
package table

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Table is an ordered set of rows with a shared column list.
type Table struct {
	columns []string
	seen    map[string]struct{}
	rows    []Record
}

// New returns an empty table.
func New() *Table {
	return &Table{seen: make(map[string]struct{})}
}

// FromRecords builds a table with one row per record.
// An empty slice yields an empty table, not an error.
func FromRecords(records []Record) *Table {
	t := New()
	for _, r := range records {
		t.Append(r)
	}
	return t
}

// Append adds a row and extends the column list with unseen keys.
func (t *Table) Append(r Record) {
	if t.seen == nil {
		t.seen = make(map[string]struct{})
	}
	for _, key := range r.keys {
		if _, ok := t.seen[key]; ok {
			continue
		}
		t.seen[key] = struct{}{}
		t.columns = append(t.columns, key)
	}
	t.rows = append(t.rows, r)
}

// Concat joins tables in the given order. Nil tables are skipped.
func Concat(tables ...*Table) *Table {
	total := 0
	for _, t := range tables {
		if t != nil {
			total += len(t.rows)
		}
	}

	out := New()
	out.rows = make([]Record, 0, total)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.rows {
			out.Append(r)
		}
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Columns returns the column names in first-seen order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Row returns the record at position i. ok is false when i is out of range.
func (t *Table) Row(i int) (Record, bool) {
	if t == nil || i < 0 || i >= len(t.rows) {
		return Record{}, false
	}
	return t.rows[i], true
}

// Rows returns the underlying records.
func (t *Table) Rows() []Record {
	if t == nil {
		return nil
	}
	return t.rows
}

// Value returns the cell at row i, column name.
func (t *Table) Value(i int, column string) (any, bool) {
	r, ok := t.Row(i)
	if !ok {
		return nil, false
	}
	return r.Get(column)
}

// Split cuts the table into consecutive pieces of at most size rows.
func (t *Table) Split(size int) ([]*Table, error) {
	if size < 1 {
		return nil, fmt.Errorf("split size must be >= 1 (got %d)", size)
	}
	var parts []*Table
	for start := 0; start < len(t.rows); start += size {
		end := start + size
		if end > len(t.rows) {
			end = len(t.rows)
		}
		parts = append(parts, FromRecords(t.rows[start:end]))
	}
	return parts, nil
}

// Strings renders every row aligned to Columns. Missing cells are empty.
func (t *Table) Strings() [][]string {
	out := make([][]string, 0, len(t.rows))
	for _, r := range t.rows {
		line := make([]string, len(t.columns))
		for j, col := range t.columns {
			if v, ok := r.Get(col); ok {
				line[j] = FormatCell(v)
			}
		}
		out = append(out, line)
	}
	return out
}

// MarshalJSON encodes the table as an array of row objects.
func (t *Table) MarshalJSON() ([]byte, error) {
	if t == nil || len(t.rows) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(t.rows)
}

// FormatCell renders a decoded JSON value as a single string.
// Scalars print plainly; arrays and objects become compact JSON.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
