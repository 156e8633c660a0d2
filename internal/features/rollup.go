package features

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultWindows returns the trailing window lengths, in days, the deployed
// models were trained against.
func DefaultWindows() []int { return []int{3, 7, 14, 30} }

var (
	ErrInvalidWindow       = errors.New("window length must be at least 1")
	ErrDuplicateWindow     = errors.New("duplicate window length")
	ErrInsufficientHistory = errors.New("insufficient history to build features")
	ErrColumnConflict      = errors.New("raw column collides with a derived column name")
)

// ColumnName returns the derived column name for a variable, statistic and window.
func ColumnName(variable string, stat Statistic, window int) string {
	return fmt.Sprintf("%s_%s_%dd", variable, stat, window)
}

// Engine derives trailing-window statistics from daily observations.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	catalog Catalog
	windows []int
}

// NewEngine returns an engine for the catalog and windows. With no windows
// the defaults are used.
func NewEngine(catalog Catalog, windows ...int) (*Engine, error) {
	if len(windows) == 0 {
		windows = DefaultWindows()
	}
	seen := make(map[int]struct{}, len(windows))
	ws := make([]int, 0, len(windows))
	for _, w := range windows {
		if w < 1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, w)
		}
		if _, dup := seen[w]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateWindow, w)
		}
		seen[w] = struct{}{}
		ws = append(ws, w)
	}
	return &Engine{catalog: catalog, windows: ws}, nil
}

// Windows returns the configured window lengths in order.
func (e *Engine) Windows() []int {
	out := make([]int, len(e.windows))
	copy(out, e.windows)
	return out
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() Catalog { return e.catalog }

// FeatureNames returns the full output column set for a table with the given
// raw columns: the raw columns followed by the derived ones.
func (e *Engine) FeatureNames(rawColumns []string) []string {
	present := make(map[string]bool, len(rawColumns))
	for _, c := range rawColumns {
		present[c] = true
	}
	names := append([]string(nil), rawColumns...)
	for _, entry := range e.catalog.entries {
		if !present[entry.Name] {
			continue
		}
		names = append(names, e.derivedNames(entry)...)
	}
	return names
}

func (e *Engine) derivedNames(entry Entry) []string {
	stats := categoryStatistics[entry.Category]
	names := make([]string, 0, len(stats)*len(e.windows))
	for _, w := range e.windows {
		for _, s := range stats {
			names = append(names, ColumnName(entry.Name, s, w))
		}
	}
	return names
}

// VariableStatus records whether a catalog variable was present in the input.
type VariableStatus struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
}

// Rollup is the output of Compute.
type Rollup struct {
	Table    *Table
	Coverage []VariableStatus
}

// Skipped returns the catalog variables absent from the input.
func (r *Rollup) Skipped() []string {
	var out []string
	for _, c := range r.Coverage {
		if !c.Present {
			out = append(out, c.Name)
		}
	}
	return out
}

// LatestComplete returns the most recent row with a value in every column.
func (r *Rollup) LatestComplete() (Row, error) {
	for i := r.Table.Len() - 1; i >= 0; i-- {
		if r.Table.Complete(i) {
			return r.Table.Row(i), nil
		}
	}
	return Row{}, ErrInsufficientHistory
}

// Compute derives rolling statistics for every catalog variable present in t.
// Each derived value for a row aggregates that row and up to window-1
// preceding rows, skipping missing readings; rows after it never contribute.
// The input must be sorted by date with unique dates, and no raw column may
// carry a name Compute would derive.
func (e *Engine) Compute(t *Table) (*Rollup, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	for _, entry := range e.catalog.entries {
		if !t.HasColumn(entry.Name) {
			continue
		}
		for _, name := range e.derivedNames(entry) {
			if t.HasColumn(name) {
				return nil, fmt.Errorf("%w: %s", ErrColumnConflict, name)
			}
		}
	}

	out := NewTable(t.columns)
	out.dates = append([]time.Time(nil), t.dates...)
	for c := range t.columns {
		out.values[c] = append([]float64(nil), t.values[c]...)
	}

	coverage := make([]VariableStatus, 0, e.catalog.Len())
	for _, entry := range e.catalog.entries {
		src, ok := t.index[entry.Name]
		coverage = append(coverage, VariableStatus{Name: entry.Name, Present: ok})
		if !ok {
			continue
		}
		series := t.values[src]
		for _, w := range e.windows {
			for _, s := range categoryStatistics[entry.Category] {
				col := out.addColumn(ColumnName(entry.Name, s, w))
				out.values[col] = rolling(series, w, s)
			}
		}
	}

	return &Rollup{Table: out, Coverage: coverage}, nil
}

// ComputeRollups runs the default catalog over t with the given windows
// (defaults when none are given).
func ComputeRollups(t *Table, windows ...int) (*Rollup, error) {
	e, err := NewEngine(DefaultCatalog(), windows...)
	if err != nil {
		return nil, err
	}
	return e.Compute(t)
}

// rolling applies stat over a trailing window of w values ending at each index.
// A window with no non-missing values yields NaN.
func rolling(series []float64, w int, stat Statistic) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		start := i - w + 1
		if start < 0 {
			start = 0
		}
		out[i] = aggregate(series[start:i+1], stat)
	}
	return out
}

func aggregate(window []float64, stat Statistic) float64 {
	var (
		n   int
		sum float64
		lo  = math.Inf(1)
		hi  = math.Inf(-1)
	)
	for _, v := range window {
		if math.IsNaN(v) {
			continue
		}
		n++
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if n == 0 {
		return math.NaN()
	}
	switch stat {
	case StatSum:
		return sum
	case StatMax:
		return hi
	case StatMin:
		return lo
	default:
		return sum / float64(n)
	}
}
