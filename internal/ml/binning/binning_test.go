package binning

import (
	"math"
	"testing"
)

func TestFitFewDistinctValues(t *testing.T) {
	X := [][]float64{{0}, {1}, {1}, {3}}
	m, err := Fit(X, 255)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got := m.NumBins(0); got != 3 {
		t.Fatalf("bins: want=3 got=%d", got)
	}
	bins := m.Transform(X)[0]
	want := []uint8{0, 1, 1, 2}
	for i := range want {
		if bins[i] != want[i] {
			t.Fatalf("bin[%d]: want=%d got=%d", i, want[i], bins[i])
		}
	}
	if th := m.Threshold(0, 0); th != 0.5 {
		t.Fatalf("threshold: want=0.5 got=%v", th)
	}
}

func TestBinAgreesWithThreshold(t *testing.T) {
	X := make([][]float64, 5000)
	for i := range X {
		X[i] = []float64{math.Sin(float64(i)) * 1000}
	}
	m, err := Fit(X, 32)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got := m.NumBins(0); got > 32 {
		t.Fatalf("bins: want<=32 got=%d", got)
	}
	for _, row := range X {
		b := int(m.Bin(0, row[0]))
		if row[0] > m.Threshold(0, b) {
			t.Fatalf("value %v above its bin bound %v", row[0], m.Threshold(0, b))
		}
		if b > 0 && row[0] <= m.Threshold(0, b-1) {
			t.Fatalf("value %v belongs in an earlier bin", row[0])
		}
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, 10); err == nil {
		t.Fatalf("Fit(empty): expected error")
	}
	if _, err := Fit([][]float64{{1}}, 1000); err == nil {
		t.Fatalf("Fit(maxBins=1000): expected error")
	}
}
