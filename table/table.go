// Package table holds the in-memory representation of one analysis kind's
// results: rows of nullable string cells, each row indexed by the sample
// identifier it belongs to. A sample may own any number of rows (e.g. one per
// gene hit), so the index is not unique.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// IndexLabel is the header of the identifier column in every persisted table
const IndexLabel = "ID"

type Table struct {
	Columns []string
	Index   []string
	Rows    [][]null.String
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{
		Columns: append([]string{}, columns...),
		Index:   make([]string, 0),
		Rows:    make([][]null.String, 0),
	}
}

// Cell converts a raw field to a table cell. Empty fields are null, which is
// also how null cells are written back out.
func Cell(s string) null.String {
	if s == "" {
		return null.String{}
	}

	return null.StringFrom(s)
}

// Format renders a cell for output; null cells become the empty string.
func Format(c null.String) string {
	if !c.Valid {
		return ""
	}

	return c.String
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}

	return -1
}

func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Append adds one row for sample id. The row must have one cell per column.
func (t *Table) Append(id string, row []null.String) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row for %s has %d cells, table has %d columns", id, len(row), len(t.Columns))
	}

	cells := make([]null.String, len(row))
	for i, c := range row {
		// A valid empty string is indistinguishable from null once written
		if c.Valid && c.String == "" {
			c = null.String{}
		}
		cells[i] = c
	}

	t.Index = append(t.Index, id)
	t.Rows = append(t.Rows, cells)

	return nil
}

// AppendStrings is Append over raw fields.
func (t *Table) AppendStrings(id string, values ...string) error {
	row := make([]null.String, len(values))
	for i, v := range values {
		row[i] = Cell(v)
	}

	return t.Append(id, row)
}

// AppendNull adds a row of nulls for id.
func (t *Table) AppendNull(id string) {
	t.Index = append(t.Index, id)
	t.Rows = append(t.Rows, make([]null.String, len(t.Columns)))
}

// Value returns the cell at the given row in the named column. Unknown columns
// yield null.
func (t *Table) Value(row int, column string) null.String {
	col := t.ColumnIndex(column)
	if col < 0 {
		return null.String{}
	}

	return t.Rows[row][col]
}

// Float parses the cell at row/column as a number.
func (t *Table) Float(row int, column string) (float64, bool) {
	v := t.Value(row, column)
	if !v.Valid {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v.String), 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// Tag sets every row's index to id. Parsers never know the sample they are
// reading; the aggregator tags each fragment once the identifier is known.
func (t *Table) Tag(id string) {
	for i := range t.Index {
		t.Index[i] = id
	}
}

// IDs returns the distinct identifiers in order of first appearance.
func (t *Table) IDs() []string {
	seen := make(map[string]struct{}, len(t.Index))
	out := make([]string, 0)
	for _, id := range t.Index {
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

// IDSet returns the distinct identifiers as a set.
func (t *Table) IDSet() map[string]struct{} {
	out := make(map[string]struct{}, len(t.Index))
	for _, id := range t.Index {
		out[id] = struct{}{}
	}

	return out
}

func (t *Table) Has(id string) bool {
	for _, v := range t.Index {
		if v == id {
			return true
		}
	}

	return false
}

// Copy returns a deep copy that shares no slices with t.
func (t *Table) Copy() *Table {
	out := &Table{
		Columns: append([]string{}, t.Columns...),
		Index:   append([]string{}, t.Index...),
		Rows:    make([][]null.String, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]null.String{}, row...)
	}

	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := New(t.Columns...)
	for i := range t.Rows {
		if !keep(i) {
			continue
		}
		out.Index = append(out.Index, t.Index[i])
		out.Rows = append(out.Rows, append([]null.String{}, t.Rows[i]...))
	}

	return out
}

// Keep returns the rows whose identifier is in ids.
func (t *Table) Keep(ids map[string]struct{}) *Table {
	return t.Filter(func(row int) bool {
		_, exists := ids[t.Index[row]]
		return exists
	})
}

// Drop returns the rows whose identifier is not in ids.
func (t *Table) Drop(ids map[string]struct{}) *Table {
	return t.Filter(func(row int) bool {
		_, exists := ids[t.Index[row]]
		return !exists
	})
}

// Concat stacks t and others into a new table. Columns are the outer union in
// order of first appearance; cells for columns a table lacks are null.
func (t *Table) Concat(others ...*Table) *Table {
	all := append([]*Table{t}, others...)

	columns := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tab := range all {
		for _, c := range tab.Columns {
			if _, exists := seen[c]; exists {
				continue
			}
			seen[c] = struct{}{}
			columns = append(columns, c)
		}
	}

	out := New(columns...)
	for _, tab := range all {
		positions := make([]int, len(tab.Columns))
		for i, c := range tab.Columns {
			positions[i] = out.ColumnIndex(c)
		}

		for i, row := range tab.Rows {
			cells := make([]null.String, len(columns))
			for j, c := range row {
				cells[positions[j]] = c
			}
			out.Index = append(out.Index, tab.Index[i])
			out.Rows = append(out.Rows, cells)
		}
	}

	return out
}

// SetColumn replaces the named column's values, appending the column if it
// does not yet exist.
func (t *Table) SetColumn(name string, values []null.String) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.Rows))
	}

	col := t.ColumnIndex(name)
	if col < 0 {
		t.Columns = append(t.Columns, name)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}

	for i := range t.Rows {
		t.Rows[i][col] = values[i]
	}

	return nil
}

// Map rewrites every cell of the named column through f.
func (t *Table) Map(column string, f func(null.String) null.String) error {
	col := t.ColumnIndex(column)
	if col < 0 {
		return fmt.Errorf("no column named %s", column)
	}

	for i := range t.Rows {
		t.Rows[i][col] = f(t.Rows[i][col])
	}

	return nil
}

// Lookup maps each identifier to the first non-null value it has in column.
func (t *Table) Lookup(column string) (map[string]null.String, error) {
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil, fmt.Errorf("no column named %s", column)
	}

	out := make(map[string]null.String)
	for i, row := range t.Rows {
		if existing, seen := out[t.Index[i]]; seen && existing.Valid {
			continue
		}
		out[t.Index[i]] = row[col]
	}

	return out, nil
}

// ValueCounts counts the non-null values of column.
func (t *Table) ValueCounts(column string) (map[string]int, error) {
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil, fmt.Errorf("no column named %s", column)
	}

	out := make(map[string]int)
	for _, row := range t.Rows {
		if row[col].Valid {
			out[row[col].String]++
		}
	}

	return out, nil
}
