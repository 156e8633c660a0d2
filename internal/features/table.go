package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/i474232898/weather-prediction/internal/common"
)

var (
	ErrUnsortedDates = errors.New("table dates are not sorted ascending")
	ErrDuplicateDate = errors.New("table contains duplicate date")
	ErrUnknownColumn = errors.New("unknown column")
)

// Missing returns the sentinel used for absent readings.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Row is one calendar date with its named values. Absent keys are missing.
type Row struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Table is a columnar, date-keyed table of daily values.
// Dates are stored as UTC midnight; missing values are NaN.
type Table struct {
	dates   []time.Time
	columns []string
	index   map[string]int
	values  [][]float64 // one slice per column
}

// NewTable creates an empty table with the given ordered columns.
// Repeated column names are collapsed.
func NewTable(columns []string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

// TableFromRows builds a table with the given columns from rows, in row order.
func TableFromRows(columns []string, rows []Row) *Table {
	t := NewTable(columns)
	for _, r := range rows {
		t.Append(r.Date, r.Values)
	}
	return t
}

func (t *Table) addColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	vals := make([]float64, len(t.dates))
	for i := range vals {
		vals[i] = math.NaN()
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	t.values = append(t.values, vals)
	return len(t.columns) - 1
}

// Append adds a row. Values for unknown columns are ignored; columns without
// a value are recorded as missing.
func (t *Table) Append(date time.Time, values map[string]float64) {
	t.dates = append(t.dates, common.Day(date))
	for i, c := range t.columns {
		v, ok := values[c]
		if !ok {
			v = math.NaN()
		}
		t.values[i] = append(t.values[i], v)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.dates) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Dates returns the row dates in order.
func (t *Table) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(t.values[i]))
	copy(out, t.values[i])
	return out, true
}

// Value returns the value at row i for the named column.
func (t *Table) Value(i int, name string) (float64, error) {
	c, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	if i < 0 || i >= len(t.dates) {
		return 0, fmt.Errorf("row %d out of range [0,%d)", i, len(t.dates))
	}
	return t.values[c][i], nil
}

// Row returns row i. Missing values are omitted from Values.
func (t *Table) Row(i int) Row {
	r := Row{Date: t.dates[i], Values: make(map[string]float64, len(t.columns))}
	for c, name := range t.columns {
		if v := t.values[c][i]; !math.IsNaN(v) {
			r.Values[name] = v
		}
	}
	return r
}

// Rows returns every row in order.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.dates))
	for i := range t.dates {
		rows[i] = t.Row(i)
	}
	return rows
}

// Complete reports whether row i has a value in every column.
func (t *Table) Complete(i int) bool {
	for c := range t.columns {
		if math.IsNaN(t.values[c][i]) {
			return false
		}
	}
	return true
}

// Truncate returns a new table holding the first n rows.
func (t *Table) Truncate(n int) *Table {
	if n > len(t.dates) {
		n = len(t.dates)
	}
	if n < 0 {
		n = 0
	}
	out := NewTable(t.columns)
	out.dates = append(out.dates, t.dates[:n]...)
	for c := range t.columns {
		out.values[c] = append(out.values[c], t.values[c][:n]...)
	}
	return out
}

// SortByDate stably reorders rows by ascending date.
func (t *Table) SortByDate() {
	order := make([]int, len(t.dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.dates[order[a]].Before(t.dates[order[b]])
	})

	dates := make([]time.Time, len(order))
	for i, j := range order {
		dates[i] = t.dates[j]
	}
	t.dates = dates
	for c := range t.columns {
		vals := make([]float64, len(order))
		for i, j := range order {
			vals[i] = t.values[c][j]
		}
		t.values[c] = vals
	}
}

// Validate checks that dates are strictly increasing.
func (t *Table) Validate() error {
	for i := 1; i < len(t.dates); i++ {
		prev, cur := t.dates[i-1], t.dates[i]
		switch {
		case cur.Equal(prev):
			return fmt.Errorf("%w: %s at row %d", ErrDuplicateDate, common.FormatDay(cur), i)
		case cur.Before(prev):
			return fmt.Errorf("%w: %s follows %s at row %d", ErrUnsortedDates,
				common.FormatDay(cur), common.FormatDay(prev), i)
		}
	}
	return nil
}
