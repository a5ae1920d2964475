// Package frame holds materialized tabular results: ordered columns plus
// rows of scanned values. A Frame is what a collected query or a decoded
// sample dataset looks like in memory.
package frame

import (
	"database/sql"
	"fmt"
	"math"
	"math/rand"
)

// Frame is an in-memory table. Rows hold values in column order; a nil cell
// is a database NULL / missing value.
type Frame struct {
	cols []string
	rows [][]any
}

// New builds a Frame from column names and rows. Rows must all match the
// column count.
func New(cols []string, rows [][]any) (*Frame, error) {
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("frame: row %d has %d values, want %d", i, len(r), len(cols))
		}
	}
	return &Frame{cols: cols, rows: rows}, nil
}

// FromRows drains a *sql.Rows result set into a Frame. Byte slices are
// converted to strings. The rows are closed by the caller.
func FromRows(rows *sql.Rows) (*Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make([]any, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Frame{cols: cols, rows: out}, nil
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	copy(out, f.cols)
	return out
}

// Rows returns the underlying row slice.
func (f *Frame) Rows() [][]any { return f.rows }

// NRow returns the number of rows. Always known on a materialized frame.
func (f *Frame) NRow() int { return len(f.rows) }

// NCol returns the number of columns.
func (f *Frame) NCol() int { return len(f.cols) }

// Head returns a frame holding the first n rows (fewer if the frame is
// shorter).
func (f *Frame) Head(n int) *Frame {
	if n > len(f.rows) {
		n = len(f.rows)
	}
	if n < 0 {
		n = 0
	}
	return &Frame{cols: f.cols, rows: f.rows[:n]}
}

// Tail returns a frame holding the last n rows.
func (f *Frame) Tail(n int) *Frame {
	if n > len(f.rows) {
		n = len(f.rows)
	}
	if n < 0 {
		n = 0
	}
	return &Frame{cols: f.cols, rows: f.rows[len(f.rows)-n:]}
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]any, error) {
	idx := -1
	for i, c := range f.cols {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("frame: no column %q", name)
	}
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Float64Column returns the named column coerced to float64. NULL becomes
// NaN; non-numeric values are an error.
func (f *Frame) Float64Column(name string) ([]float64, error) {
	vals, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		x, ok := asFloat64(v)
		if !ok {
			return nil, fmt.Errorf("frame: column %q row %d is %T, not numeric", name, i, v)
		}
		out[i] = x
	}
	return out, nil
}

// IsNumeric reports whether every non-NULL value in the named column is
// numeric.
func (f *Frame) IsNumeric(name string) bool {
	vals, err := f.Column(name)
	if err != nil {
		return false
	}
	for _, v := range vals {
		if _, ok := asFloat64(v); !ok {
			return false
		}
	}
	return true
}

// MapFloatColumns applies a summary function to every numeric column and
// returns the results keyed by column name. Non-numeric columns are skipped.
func (f *Frame) MapFloatColumns(fn func([]float64) float64) map[string]float64 {
	out := make(map[string]float64)
	for _, name := range f.cols {
		if !f.IsNumeric(name) {
			continue
		}
		xs, err := f.Float64Column(name)
		if err != nil {
			continue
		}
		out[name] = fn(xs)
	}
	return out
}

// Synthetic builds a deterministic table of standard-normal draws, with
// columns named a, b, c, ... Used by the normalization demonstration.
func Synthetic(nrow, ncol int, seed int64) *Frame {
	rng := rand.New(rand.NewSource(seed))
	cols := make([]string, ncol)
	for j := range cols {
		cols[j] = string(rune('a' + j%26))
		if j >= 26 {
			cols[j] = fmt.Sprintf("%s%d", cols[j], j/26)
		}
	}
	rows := make([][]any, nrow)
	for i := range rows {
		row := make([]any, ncol)
		for j := range row {
			row[j] = rng.NormFloat64()*10 + float64(j)
		}
		rows[i] = row
	}
	return &Frame{cols: cols, rows: rows}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	default:
		return 0, false
	}
}
