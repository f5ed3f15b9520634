// Package binning discretizes continuous features into at most 256 ordered
// bins so tree learners can search splits over histograms instead of sorted
// values.
package binning

import (
	"fmt"
	"math"
	"sort"
)

const MaxBins = 256

// Mapper holds, per feature, ascending bin upper bounds. The last bound of
// every feature is +Inf. A value v falls in the first bin whose bound is >= v.
type Mapper struct {
	Bounds [][]float64 `json:"bounds"`
}

// Fit builds bounds from the columns of X. Features with at most maxBins
// distinct values get one bin per value; the rest get quantile cut points.
func Fit(X [][]float64, maxBins int) (*Mapper, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("binning: empty matrix")
	}
	if maxBins < 2 || maxBins > MaxBins {
		return nil, fmt.Errorf("binning: max bins %d outside [2, %d]", maxBins, MaxBins)
	}
	d := len(X[0])
	m := &Mapper{Bounds: make([][]float64, d)}
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		m.Bounds[j] = featureBounds(col, maxBins)
	}
	return m, nil
}

func featureBounds(col []float64, maxBins int) []float64 {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)
	distinct := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}
	var bounds []float64
	if len(distinct) <= maxBins {
		for i := 0; i+1 < len(distinct); i++ {
			bounds = append(bounds, midpoint(distinct[i], distinct[i+1]))
		}
	} else {
		n := len(sorted)
		for b := 1; b < maxBins; b++ {
			q := sorted[b*n/maxBins]
			// Snap the cut between q and the next distinct value so it
			// never lands on a value and splits are reproducible.
			k := sort.SearchFloat64s(distinct, q)
			if k+1 >= len(distinct) {
				break
			}
			cut := midpoint(distinct[k], distinct[k+1])
			if len(bounds) == 0 || cut > bounds[len(bounds)-1] {
				bounds = append(bounds, cut)
			}
		}
	}
	return append(bounds, math.Inf(1))
}

func midpoint(a, b float64) float64 {
	return a + (b-a)/2
}

func (m *Mapper) NumFeatures() int { return len(m.Bounds) }

func (m *Mapper) NumBins(feature int) int { return len(m.Bounds[feature]) }

// Bin returns the bin of value v for feature j.
func (m *Mapper) Bin(j int, v float64) uint8 {
	b := m.Bounds[j]
	return uint8(sort.Search(len(b)-1, func(k int) bool { return v <= b[k] }))
}

// Threshold is the raw value equivalent of "bin <= b" for feature j.
func (m *Mapper) Threshold(j, b int) float64 {
	return m.Bounds[j][b]
}

// Transform bins X column-major: out[j][i] is the bin of X[i][j].
func (m *Mapper) Transform(X [][]float64) [][]uint8 {
	out := make([][]uint8, len(m.Bounds))
	for j := range m.Bounds {
		col := make([]uint8, len(X))
		for i, row := range X {
			col[i] = m.Bin(j, row[j])
		}
		out[j] = col
	}
	return out
}
