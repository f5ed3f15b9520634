// Package search runs randomized hyperparameter search with stratified
// cross-validation and refits the winner on the full training set.
package search

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/metrics"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/parallel"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

type Estimator interface {
	Fit(ctx context.Context, X [][]float64, y []int) error
	Predict(X [][]float64) []int
}

// Factory builds an unfitted estimator from sampled parameters.
type Factory func(params map[string]any) (Estimator, error)

type Settings struct {
	NIter       int
	CV          int
	NJobs       int
	RandomState int64
	Scoring     string
}

func DefaultSettings() Settings {
	return Settings{NIter: 4, CV: 2, NJobs: -1, RandomState: 42, Scoring: "accuracy"}
}

func (s Settings) Validate() error {
	if s.NIter < 1 {
		return fmt.Errorf("search: n_iter must be positive, got %d", s.NIter)
	}
	if s.CV < 2 {
		return fmt.Errorf("search: cv must be at least 2, got %d", s.CV)
	}
	if !metrics.Known(s.Scoring) {
		return fmt.Errorf("search: unknown scoring %q", s.Scoring)
	}
	return nil
}

type Candidate struct {
	Params     map[string]any
	FoldScores []float64
	MeanScore  float64
	StdScore   float64
	Rank       int
	FitTime    time.Duration
}

type Result struct {
	Candidates []Candidate
	BestIndex  int
	Best       Estimator
	Scoring    string
}

func (r *Result) BestParams() map[string]any { return r.Candidates[r.BestIndex].Params }

func (r *Result) BestScore() float64 { return r.Candidates[r.BestIndex].MeanScore }

// RandomizedSearch scores s.NIter parameter draws from space with s.CV
// stratified folds. The best mean score wins, the earliest draw on ties.
func RandomizedSearch(ctx context.Context, factory Factory, space Space, s Settings, X [][]float64, y []int, log *logger.Logger) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := space.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	folds, err := StratifiedKFold(y, s.CV)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.RandomState))
	cands := make([]Candidate, s.NIter)
	for i := range cands {
		cands[i] = Candidate{Params: space.Sample(rng), FoldScores: make([]float64, s.CV)}
	}
	log.Info("search: starting",
		"candidates", s.NIter,
		"folds", s.CV,
		"fits", s.NIter*s.CV,
		"scoring", s.Scoring,
	)

	durations := make([]time.Duration, s.NIter*s.CV)
	err = parallel.For(ctx, s.NIter*s.CV, s.NJobs, func(ctx context.Context, job int) error {
		c, f := job/s.CV, job%s.CV
		start := time.Now()
		est, err := factory(cands[c].Params)
		if err != nil {
			return fmt.Errorf("search: candidate %d: %w", c, err)
		}
		fold := folds[f]
		if err := est.Fit(ctx, rows(X, fold.Train), labels(y, fold.Train)); err != nil {
			return fmt.Errorf("search: candidate %d fold %d: %w", c, f, err)
		}
		score, err := metrics.Score(s.Scoring, labels(y, fold.Test), est.Predict(rows(X, fold.Test)))
		if err != nil {
			return err
		}
		cands[c].FoldScores[f] = score
		durations[job] = time.Since(start)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range cands {
		c := &cands[i]
		c.MeanScore, _ = stats.Mean(c.FoldScores)
		c.StdScore, _ = stats.StandardDeviationPopulation(c.FoldScores)
		for f := 0; f < s.CV; f++ {
			c.FitTime += durations[i*s.CV+f]
		}
		log.Debug("search: candidate scored",
			"candidate", i,
			"params", c.Params,
			"mean", c.MeanScore,
			"std", c.StdScore,
		)
	}
	best := rank(cands)

	res := &Result{Candidates: cands, BestIndex: best, Scoring: s.Scoring}
	est, err := factory(cands[best].Params)
	if err != nil {
		return nil, err
	}
	if err := est.Fit(ctx, X, y); err != nil {
		return nil, fmt.Errorf("search: refit best candidate: %w", err)
	}
	res.Best = est
	log.Info("search: finished",
		"best_index", best,
		"best_score", cands[best].MeanScore,
		"best_params", cands[best].Params,
	)
	return res, nil
}

// rank assigns min-ranks by descending mean score and returns the first
// candidate ranked 1.
func rank(cands []Candidate) int {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].MeanScore > cands[order[b]].MeanScore
	})
	for pos, i := range order {
		if pos > 0 && cands[i].MeanScore == cands[order[pos-1]].MeanScore {
			cands[i].Rank = cands[order[pos-1]].Rank
		} else {
			cands[i].Rank = pos + 1
		}
	}
	return order[0]
}

func rows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = X[i]
	}
	return out
}

func labels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
