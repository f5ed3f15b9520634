// Package stats holds the column statistics used by preprocessing.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Skewness returns the bias-adjusted sample skewness (the G1 estimator), or
// 0 when fewer than three values are given or the column is constant.
func Skewness(xs []float64) float64 {
	if len(xs) < 3 {
		return 0
	}
	_, std := stat.MeanStdDev(xs, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return stat.Skew(xs, nil)
}

// Log1p returns log(1+x) for every value.
func Log1p(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log1p(x)
	}
	return out
}
