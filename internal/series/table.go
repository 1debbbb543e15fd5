package series

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"charmcli/pkg/contracts/domain"
)

// Table is a CSV table kept as strings, used for files whose column labels
// come from configuration
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable creates an empty table with the given header
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Index returns the position of a column or -1
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has every named column
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Len is the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds a row of cells rendered with FormatValue
func (t *Table) Append(cells ...interface{}) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = FormatValue(c)
	}
	t.Rows = append(t.Rows, row)
}

// Strings returns a column as strings
func (t *Table) Strings(name string) ([]string, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out, nil
}

// Floats returns a column as numbers. Empty and unparsable cells are NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	cells, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		out[i] = ParseFloat(c)
	}
	return out, nil
}

// Times returns a column as wall-clock times
func (t *Table) Times(name string) ([]time.Time, error) {
	cells, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(cells))
	for i, c := range cells {
		ts, err := domain.ParseTime(c)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = ts
	}
	return out, nil
}

// Series pairs a time column with a value column
func (t *Table) Series(timeCol, valueCol string) (Series, error) {
	times, err := t.Times(timeCol)
	if err != nil {
		return nil, err
	}
	values, err := t.Floats(valueCol)
	if err != nil {
		return nil, err
	}
	return New(times, values), nil
}

// Filter returns the rows for which keep is true
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// ParseFloat converts a CSV cell, NaN when the cell is empty or not numeric
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "null", "none":
		return math.NaN()
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatValue renders a cell. NaN becomes an empty cell and times use the
// table timestamp layout.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	case time.Time:
		return domain.FormatTime(x)
	case domain.Timestamp:
		return domain.FormatTime(x.Time)
	}
	return cast.ToString(v)
}

// FormatFloat renders x with the shortest exact representation
func FormatFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return cast.ToString(x)
}
