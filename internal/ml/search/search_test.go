package search

import (
	"context"
	"math/rand"
	"reflect"
	"testing"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/gbm"
)

func TestStratifiedKFoldKeepsRatio(t *testing.T) {
	y := make([]int, 0, 100)
	for i := 0; i < 100; i++ {
		if i%4 == 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	folds, err := StratifiedKFold(y, 2)
	if err != nil {
		t.Fatalf("StratifiedKFold: %v", err)
	}
	seen := map[int]int{}
	for _, f := range folds {
		if len(f.Test)+len(f.Train) != len(y) {
			t.Fatalf("fold does not partition the samples")
		}
		var pos int
		for _, i := range f.Test {
			seen[i]++
			pos += y[i]
		}
		if len(f.Test) != 50 || pos != 25/2 && pos != 25/2+1 {
			t.Fatalf("fold: want 50 rows with 12 or 13 positives, got %d rows %d positives", len(f.Test), pos)
		}
	}
	if len(seen) != len(y) {
		t.Fatalf("every sample must be tested exactly once, got %d", len(seen))
	}
	// No shuffling: the first positive lands in fold 0.
	if folds[0].Test[0] != 0 {
		t.Fatalf("first test index: want=0 got=%d", folds[0].Test[0])
	}
}

func TestStratifiedKFoldErrors(t *testing.T) {
	if _, err := StratifiedKFold([]int{0, 1, 0, 0}, 2); err == nil {
		t.Fatalf("expected error when a class has fewer members than folds")
	}
	if _, err := StratifiedKFold([]int{0, 1}, 1); err == nil {
		t.Fatalf("expected error for cv < 2")
	}
}

func TestSpaceSampleRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		p := DefaultSpace().Sample(rng)
		if n := p["n_estimators"].(int); n < 100 || n >= 500 {
			t.Fatalf("n_estimators out of range: %d", n)
		}
		if lr := p["learning_rate"].(float64); lr < 0.01 || lr > 0.21 {
			t.Fatalf("learning_rate out of range: %v", lr)
		}
		if bt := p["boosting_type"].(string); bt != "gbdt" && bt != "goss" {
			t.Fatalf("boosting_type: %q", bt)
		}
	}
}

func TestParseSpace(t *testing.T) {
	doc := []byte(`
params:
  - {name: n_estimators, kind: randint, low: 10, high: 20}
  - {name: learning_rate, kind: uniform, loc: 0.1, scale: 0.0}
  - {name: boosting_type, kind: choice, values: [goss]}
`)
	s, err := ParseSpace(doc)
	if err != nil {
		t.Fatalf("ParseSpace: %v", err)
	}
	p := s.Sample(rand.New(rand.NewSource(3)))
	if p["learning_rate"] != 0.1 || p["boosting_type"] != "goss" {
		t.Fatalf("sample: got=%v", p)
	}
	if _, err := ParseSpace([]byte("params:\n  - {name: x, kind: normal}\n")); err == nil {
		t.Fatalf("unknown kind: expected error")
	}
	if _, err := ParseSpace([]byte("params:\n  - {name: x, kind: randint, low: 5, high: 5}\n")); err == nil {
		t.Fatalf("empty randint: expected error")
	}
}

func data(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		X[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
		if X[i][0] > 0.3 {
			y[i] = 1
		}
	}
	return X, y
}

func gbmFactory(params map[string]any) (Estimator, error) {
	p, err := gbm.DefaultParams().With(params)
	if err != nil {
		return nil, err
	}
	return gbm.New(p), nil
}

func smallSpace() Space {
	return Space{
		{Name: "n_estimators", Dist: IntUniform{Low: 5, High: 15}},
		{Name: "learning_rate", Dist: Uniform{Loc: 0.05, Scale: 0.2}},
		{Name: "boosting_type", Dist: Choice{Values: []any{"gbdt", "goss"}}},
	}
}

func TestRandomizedSearch(t *testing.T) {
	X, y := data(400, 7)
	res, err := RandomizedSearch(context.Background(), gbmFactory, smallSpace(), DefaultSettings(), X, y, nil)
	if err != nil {
		t.Fatalf("RandomizedSearch: %v", err)
	}
	if len(res.Candidates) != 4 {
		t.Fatalf("candidates: want=4 got=%d", len(res.Candidates))
	}
	for i, c := range res.Candidates {
		if c.MeanScore > res.BestScore() {
			t.Fatalf("candidate %d beats the winner", i)
		}
		if len(c.FoldScores) != 2 || c.Rank < 1 {
			t.Fatalf("candidate %d: folds=%d rank=%d", i, len(c.FoldScores), c.Rank)
		}
	}
	if res.Candidates[res.BestIndex].Rank != 1 || res.BestScore() < 0.9 {
		t.Fatalf("best: rank=%d score=%v", res.Candidates[res.BestIndex].Rank, res.BestScore())
	}
	if res.Best == nil || len(res.Best.Predict(X)) != len(X) {
		t.Fatalf("best estimator was not refit")
	}
}

func TestRandomizedSearchDeterministic(t *testing.T) {
	X, y := data(300, 8)
	s := DefaultSettings()
	a, err := RandomizedSearch(context.Background(), gbmFactory, smallSpace(), s, X, y, nil)
	if err != nil {
		t.Fatalf("RandomizedSearch: %v", err)
	}
	s.NJobs = 1
	b, err := RandomizedSearch(context.Background(), gbmFactory, smallSpace(), s, X, y, nil)
	if err != nil {
		t.Fatalf("RandomizedSearch: %v", err)
	}
	if !reflect.DeepEqual(a.BestParams(), b.BestParams()) || a.BestScore() != b.BestScore() {
		t.Fatalf("worker count changed the result")
	}
}

func TestRankTiesKeepFirst(t *testing.T) {
	c := []Candidate{{MeanScore: 0.5}, {MeanScore: 0.9}, {MeanScore: 0.9}, {MeanScore: 0.1}}
	if best := rank(c); best != 1 {
		t.Fatalf("best: want=1 got=%d", best)
	}
	if c[1].Rank != 1 || c[2].Rank != 1 || c[0].Rank != 3 || c[3].Rank != 4 {
		t.Fatalf("ranks: got=%d %d %d %d", c[0].Rank, c[1].Rank, c[2].Rank, c[3].Rank)
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	s.Scoring = "roc_auc"
	if err := s.Validate(); err == nil {
		t.Fatalf("unknown scoring: expected error")
	}
}
