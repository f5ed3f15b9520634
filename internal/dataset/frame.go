// Package dataset holds the tabular frame the pipeline stages pass around.
//
// Cells are kept as the strings read from CSV so categorical columns survive
// untouched until they are encoded; numeric access parses on demand.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a frame. Every row must have one cell per column.
func New(columns []string, rows [][]string) (*Frame, error) {
	f := &Frame{columns: append([]string(nil), columns...)}
	if err := f.reindex(); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d: want %d cells got %d", i, len(columns), len(r))
		}
	}
	f.rows = rows
	return f, nil
}

func (f *Frame) reindex() error {
	f.index = make(map[string]int, len(f.columns))
	for i, c := range f.columns {
		if _, dup := f.index[c]; dup {
			return fmt.Errorf("duplicate column %q", c)
		}
		f.index[c] = i
	}
	return nil
}

func (f *Frame) Len() int { return len(f.rows) }

func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Row returns the cells of row i. The slice is shared with the frame.
func (f *Frame) Row(i int) []string { return f.rows[i] }

func (f *Frame) Column(col string) ([]string, error) {
	j, ok := f.index[col]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", col)
	}
	out := make([]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out, nil
}

func (f *Frame) SetColumn(col string, vals []string) error {
	j, ok := f.index[col]
	if !ok {
		return fmt.Errorf("unknown column %q", col)
	}
	if len(vals) != len(f.rows) {
		return fmt.Errorf("column %q: want %d values got %d", col, len(f.rows), len(vals))
	}
	for i, r := range f.rows {
		r[j] = vals[i]
	}
	return nil
}

func (f *Frame) Floats(col string) ([]float64, error) {
	cells, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, err := parseFloat(c)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", col, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (f *Frame) SetFloats(col string, vals []float64) error {
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = FormatFloat(v)
	}
	return f.SetColumn(col, cells)
}

// Drop removes the named columns. Names that are not present are ignored.
func (f *Frame) Drop(cols ...string) []string {
	remove := map[int]bool{}
	var dropped []string
	for _, c := range cols {
		if j, ok := f.index[c]; ok && !remove[j] {
			remove[j] = true
			dropped = append(dropped, c)
		}
	}
	if len(remove) == 0 {
		return nil
	}
	keep := make([]int, 0, len(f.columns)-len(remove))
	for j := range f.columns {
		if !remove[j] {
			keep = append(keep, j)
		}
	}
	f.project(keep)
	return dropped
}

// DropDuplicates removes rows identical to an earlier row and returns how many went.
func (f *Frame) DropDuplicates() int {
	seen := make(map[string]struct{}, len(f.rows))
	out := f.rows[:0]
	for _, r := range f.rows {
		key := strings.Join(r, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	removed := len(f.rows) - len(out)
	f.rows = out
	return removed
}

// Select returns a new frame with exactly cols, in that order.
func (f *Frame) Select(cols []string) (*Frame, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", c)
		}
		idx[k] = j
	}
	out := f.Clone()
	out.project(idx)
	return out, nil
}

// Take returns a new frame holding rows idx in that order.
func (f *Frame) Take(idx []int) *Frame {
	rows := make([][]string, len(idx))
	for k, i := range idx {
		rows[k] = append([]string(nil), f.rows[i]...)
	}
	out := &Frame{columns: f.Columns(), rows: rows}
	_ = out.reindex()
	return out
}

func (f *Frame) Clone() *Frame {
	all := make([]int, len(f.rows))
	for i := range all {
		all[i] = i
	}
	return f.Take(all)
}

func (f *Frame) project(idx []int) {
	cols := make([]string, len(idx))
	for k, j := range idx {
		cols[k] = f.columns[j]
	}
	for i, r := range f.rows {
		nr := make([]string, len(idx))
		for k, j := range idx {
			nr[k] = r[j]
		}
		f.rows[i] = nr
	}
	f.columns = cols
	_ = f.reindex()
}

// Matrix returns the named columns as a row-major float matrix.
func (f *Frame) Matrix(cols []string) ([][]float64, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", c)
		}
		idx[k] = j
	}
	out := make([][]float64, len(f.rows))
	for i, r := range f.rows {
		row := make([]float64, len(idx))
		for k, j := range idx {
			v, err := parseFloat(r[j])
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", f.columns[j], i, err)
			}
			row[k] = v
		}
		out[i] = row
	}
	return out, nil
}

// Labels parses col as integer class labels.
func (f *Frame) Labels(col string) ([]int, error) {
	vals, err := f.Floats(col)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		if v != float64(int(v)) {
			return nil, fmt.Errorf("column %q row %d: label %v is not an integer", col, i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// FromMatrix builds a frame of feature columns followed by an integer target column.
func FromMatrix(cols []string, X [][]float64, target string, y []int) (*Frame, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("matrix has %d rows, labels %d", len(X), len(y))
	}
	header := append(append([]string(nil), cols...), target)
	rows := make([][]string, len(X))
	for i, x := range X {
		if len(x) != len(cols) {
			return nil, fmt.Errorf("row %d: want %d features got %d", i, len(cols), len(x))
		}
		r := make([]string, len(header))
		for j, v := range x {
			r[j] = FormatFloat(v)
		}
		r[len(cols)] = strconv.Itoa(y[i])
		rows[i] = r
	}
	return New(header, rows)
}

// FormatFloat renders v the shortest way that round-trips, without exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
