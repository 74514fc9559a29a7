// Package dataset models the tabular record sets the pipeline passes between
// stages: an ordered column list plus string-valued rows. All values are kept
// as text, matching the text-typed storage they come from; components that
// need a real boolean or number convert at their own boundary.
package dataset

import "strings"

// Row is one record keyed by column name.
type Row map[string]string

// Dataset is an ordered record set.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New returns an empty dataset with the given column order.
func New(columns []string) Dataset {
	return Dataset{Columns: append([]string{}, columns...), Rows: nil}
}

// Normalize enforces the required column set and order: duplicate column
// names collapse keeping the first occurrence, absent columns are created
// empty on every row, extra columns are dropped. Never fails; missing data
// surfaces as empty values downstream.
func (d Dataset) Normalize(required []string) Dataset {
	out := New(required)
	out.Rows = make([]Row, 0, len(d.Rows))
	for _, row := range d.Rows {
		nr := make(Row, len(required))
		for _, c := range required {
			nr[c] = row[c]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Append adds a row, copying it.
func (d *Dataset) Append(row Row) {
	nr := make(Row, len(row))
	for k, v := range row {
		nr[k] = v
	}
	d.Rows = append(d.Rows, nr)
}

// Concat appends other's rows after d's, preserving order within each side.
// The column set is taken from d.
func (d Dataset) Concat(other Dataset) Dataset {
	out := New(d.Columns)
	out.Rows = make([]Row, 0, len(d.Rows)+len(other.Rows))
	out.Rows = append(out.Rows, d.Rows...)
	out.Rows = append(out.Rows, other.Rows...)
	return out
}

// Filter returns the rows for which keep is true, in order.
func (d Dataset) Filter(keep func(Row) bool) Dataset {
	out := New(d.Columns)
	for _, row := range d.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// HasColumn reports whether the dataset carries the named column.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RenameColumn renames a column everywhere it appears. A no-op when the old
// name is absent or the new name already exists.
func (d Dataset) RenameColumn(oldName, newName string) Dataset {
	if !d.HasColumn(oldName) || d.HasColumn(newName) {
		return d
	}
	out := New(nil)
	for _, c := range d.Columns {
		if c == oldName {
			c = newName
		}
		out.Columns = append(out.Columns, c)
	}
	for _, row := range d.Rows {
		nr := make(Row, len(row))
		for k, v := range row {
			if k == oldName {
				k = newName
			}
			nr[k] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Empty reports whether the dataset has no rows.
func (d Dataset) Empty() bool {
	return len(d.Rows) == 0
}

// Values returns the trimmed values of one column, in row order.
func (d Dataset) Values(column string) []string {
	out := make([]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		out = append(out, strings.TrimSpace(row[column]))
	}
	return out
}

// DedupeColumns collapses duplicate names in a raw column list, keeping the
// first occurrence. Raw SQL reads can legally yield duplicate column names.
func DedupeColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
