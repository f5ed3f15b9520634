package forest

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
)

// signal in feature 2, noise elsewhere.
func fixture(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		x := []float64{rng.Float64(), rng.NormFloat64(), rng.Float64() * 10, float64(rng.Intn(3))}
		X[i] = x
		if x[2]+rng.NormFloat64()*0.5 > 5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestImportancesFavorInformativeFeature(t *testing.T) {
	X, y := fixture(600, 1)
	cfg := DefaultConfig()
	cfg.NEstimators = 30
	rf := New(cfg)
	if err := rf.Fit(context.Background(), X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	imp := rf.FeatureImportances()
	var sum float64
	best := 0
	for j, v := range imp {
		sum += v
		if v > imp[best] {
			best = j
		}
	}
	if best != 2 {
		t.Fatalf("most important: want=2 got=%d (%v)", best, imp)
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("importances sum: want=1 got=%v", sum)
	}

	Xt, yt := fixture(300, 2)
	pred := rf.Predict(Xt)
	correct := 0
	for i := range yt {
		if pred[i] == yt[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(yt)); acc < 0.8 {
		t.Fatalf("holdout accuracy: want>=0.8 got=%v", acc)
	}
}

func TestFitDeterministicAcrossWorkerCounts(t *testing.T) {
	X, y := fixture(300, 5)
	run := func(jobs int) []float64 {
		cfg := DefaultConfig()
		cfg.NEstimators = 12
		cfg.NJobs = jobs
		rf := New(cfg)
		if err := rf.Fit(context.Background(), X, y); err != nil {
			t.Fatalf("Fit: %v", err)
		}
		return rf.FeatureImportances()
	}
	if a, b := run(1), run(4); !reflect.DeepEqual(a, b) {
		t.Fatalf("importances differ by worker count: %v vs %v", a, b)
	}
}

func TestFitRejectsNonBinaryLabels(t *testing.T) {
	rf := New(DefaultConfig())
	if err := rf.Fit(context.Background(), [][]float64{{1}, {2}}, []int{0, 2}); err == nil {
		t.Fatalf("Fit: expected error for label 2")
	}
}
