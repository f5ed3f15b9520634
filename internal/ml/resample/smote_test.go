package resample

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
)

func imbalanced(n1, n0 int) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(9))
	var X [][]float64
	var y []int
	for i := 0; i < n0; i++ {
		X = append(X, []float64{rng.Float64(), rng.Float64()})
		y = append(y, 0)
	}
	for i := 0; i < n1; i++ {
		X = append(X, []float64{10 + rng.Float64(), 10 + rng.Float64()})
		y = append(y, 1)
	}
	return X, y
}

func TestFitResampleBalancesClasses(t *testing.T) {
	X, y := imbalanced(20, 100)
	s := SMOTE{KNeighbors: 5, RandomState: 42, NJobs: 2}
	Xr, yr, rep, err := s.FitResample(context.Background(), X, y)
	if err != nil {
		t.Fatalf("FitResample: %v", err)
	}
	counts := map[int]int{}
	for _, c := range yr {
		counts[c]++
	}
	if counts[0] != 100 || counts[1] != 100 {
		t.Fatalf("counts: want 100/100 got=%v", counts)
	}
	if rep.Synthetic != 80 || rep.Before[1] != 20 || rep.After[1] != 100 {
		t.Fatalf("report: got=%+v", rep)
	}
	if !reflect.DeepEqual(Xr[:len(X)], X) {
		t.Fatalf("original rows must come first, unchanged")
	}
	// Synthetic minority rows lie inside the minority cluster's bounding box.
	for i := len(X); i < len(Xr); i++ {
		for _, v := range Xr[i] {
			if v < 10 || v > 11 {
				t.Fatalf("synthetic row %v escaped the minority cluster", Xr[i])
			}
		}
	}
}

func TestFitResampleDeterministic(t *testing.T) {
	X, y := imbalanced(15, 60)
	s := SMOTE{KNeighbors: 5, RandomState: 42}
	a, _, _, err := s.FitResample(context.Background(), X, y)
	if err != nil {
		t.Fatalf("FitResample: %v", err)
	}
	s.NJobs = 1
	b, _, _, _ := s.FitResample(context.Background(), X, y)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different samples")
	}
}

func TestFitResampleErrors(t *testing.T) {
	X, y := imbalanced(3, 30)
	if _, _, _, err := (SMOTE{KNeighbors: 5}).FitResample(context.Background(), X, y); err == nil {
		t.Fatalf("expected error when minority has fewer than k+1 samples")
	}
	if _, _, _, err := (SMOTE{}).FitResample(context.Background(), [][]float64{{1}, {2}}, []int{1, 1}); err == nil {
		t.Fatalf("expected error for a single class")
	}
}

func TestFitResampleAlreadyBalanced(t *testing.T) {
	X, y := imbalanced(10, 10)
	Xr, _, rep, err := (SMOTE{}).FitResample(context.Background(), X, y)
	if err != nil {
		t.Fatalf("FitResample: %v", err)
	}
	if len(Xr) != 20 || rep.Synthetic != 0 {
		t.Fatalf("balanced input should pass through, got %d rows", len(Xr))
	}
}

func bruteNeighbours(pts [][]float64, k int) [][]int {
	out := make([][]int, len(pts))
	for i := range pts {
		var cs []cand
		for j := range pts {
			if j != i {
				cs = append(cs, cand{d: sqdist(pts[i], pts[j]), j: j})
			}
		}
		for a := 1; a < len(cs); a++ {
			for b := a; b > 0 && less(cs[b], cs[b-1]); b-- {
				cs[b], cs[b-1] = cs[b-1], cs[b]
			}
		}
		idx := make([]int, k)
		for t := 0; t < k; t++ {
			idx[t] = cs[t].j
		}
		out[i] = idx
	}
	return out
}

func TestNeighboursMatchExhaustiveSearch(t *testing.T) {
	// Integer grid with repeated rows so many distances tie.
	rng := rand.New(rand.NewSource(3))
	pts := make([][]float64, 600)
	for i := range pts {
		pts[i] = []float64{float64(rng.Intn(6)), float64(rng.Intn(6)), float64(rng.Intn(3))}
	}
	for _, k := range []int{1, 5, 12} {
		got, err := neighbours(context.Background(), pts, k, 3)
		if err != nil {
			t.Fatalf("neighbours: %v", err)
		}
		want := bruteNeighbours(pts, k)
		for i := range pts {
			if !reflect.DeepEqual(got[i], want[i]) {
				t.Fatalf("k=%d point %d: want=%v got=%v", k, i, want[i], got[i])
			}
		}
	}
}

func TestNeighboursCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, _ := imbalanced(0, 50)
	if _, err := neighbours(ctx, X, 5, 1); err == nil {
		t.Fatalf("expected context error")
	}
}
