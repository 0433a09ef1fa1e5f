package tabular

import (
	"fmt"
	"strconv"
)

// Kind is the value type of a column.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindString
)

// Column is one typed channel of decoded samples. Exactly one of the value
// slices is populated, matching Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch c.Kind {
	case KindFloat:
		return len(c.Floats)
	case KindInt:
		return len(c.Ints)
	case KindString:
		return len(c.Strings)
	default:
		return 0
	}
}

// Cell formats the value at row i as a string.
func (c Column) Cell(i int) string {
	switch c.Kind {
	case KindFloat:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(c.Ints[i], 10)
	case KindString:
		return c.Strings[i]
	default:
		return ""
	}
}

// Value returns the Go value at row i.
func (c Column) Value(i int) any {
	switch c.Kind {
	case KindFloat:
		return c.Floats[i]
	case KindInt:
		return c.Ints[i]
	case KindString:
		return c.Strings[i]
	default:
		return nil
	}
}

// Table is the columnar view of one decoded measurement file.
type Table struct {
	Name    string
	Meta    map[string]string
	Columns []Column
}

// NumRows returns the row count shared by all columns.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Validate checks structural invariants: at least one column, unique column
// names, and equal column lengths.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	rows := t.Columns[0].Len()
	for _, col := range t.Columns {
		if col.Name == "" {
			return fmt.Errorf("table %q has an unnamed column", t.Name)
		}
		if _, ok := seen[col.Name]; ok {
			return fmt.Errorf("table %q has duplicate column %q", t.Name, col.Name)
		}
		seen[col.Name] = struct{}{}
		if col.Len() != rows {
			return fmt.Errorf("table %q column %q has %d rows, expected %d", t.Name, col.Name, col.Len(), rows)
		}
	}
	return nil
}

// RowSet is the row-major string view of a Table, suitable for delimited text
// output. Both views reflect the same underlying decoded data.
type RowSet struct {
	header []string
	table  *Table
}

// NewRowSet builds the row view over a table.
func NewRowSet(t *Table) *RowSet {
	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	return &RowSet{header: header, table: t}
}

// Header returns the column names in order.
func (r *RowSet) Header() []string { return r.header }

// Len returns the number of data rows.
func (r *RowSet) Len() int { return r.table.NumRows() }

// Row formats data row i as strings, one per column.
func (r *RowSet) Row(i int) []string {
	cells := make([]string, len(r.table.Columns))
	for c, col := range r.table.Columns {
		cells[c] = col.Cell(i)
	}
	return cells
}
