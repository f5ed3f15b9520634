// Package forest is a binary Random Forest classifier built from gini CART
// trees over binned features. It is used to rank features by mean decrease
// in impurity.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/binning"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/parallel"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/tree"
)

type Config struct {
	NEstimators int
	// MaxFeatures considered per split; 0 means floor(sqrt(d)).
	MaxFeatures     int
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MaxBins         int
	Bootstrap       bool
	RandomState     int64
	NJobs           int
}

func DefaultConfig() Config {
	return Config{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MaxBins:         255,
		Bootstrap:       true,
		RandomState:     42,
		NJobs:           -1,
	}
}

type Classifier struct {
	cfg         Config
	trees       []tree.Tree
	importances []float64
}

func New(cfg Config) *Classifier {
	if cfg.NEstimators <= 0 {
		cfg.NEstimators = 100
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MaxBins <= 0 {
		cfg.MaxBins = 255
	}
	return &Classifier{cfg: cfg}
}

// Fit grows NEstimators trees in parallel. Tree t always draws from the same
// seed, so results do not depend on scheduling.
func (c *Classifier) Fit(ctx context.Context, X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("forest: %d rows vs %d labels", len(X), len(y))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("forest: label %d at row %d is not binary", v, i)
		}
	}
	mapper, err := binning.Fit(X, c.cfg.MaxBins)
	if err != nil {
		return err
	}
	bins := mapper.Transform(X)
	d := len(X[0])
	mtry := c.cfg.MaxFeatures
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(d)))
	}
	if mtry < 1 {
		mtry = 1
	}
	if mtry > d {
		mtry = d
	}

	master := rand.New(rand.NewSource(c.cfg.RandomState))
	seeds := make([]int64, c.cfg.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]tree.Tree, c.cfg.NEstimators)
	imps := make([][]float64, c.cfg.NEstimators)
	err = parallel.For(ctx, c.cfg.NEstimators, c.cfg.NJobs, func(_ context.Context, t int) error {
		g := grower{
			cfg:    c.cfg,
			mtry:   mtry,
			rng:    rand.New(rand.NewSource(seeds[t])),
			mapper: mapper,
			bins:   bins,
			y:      y,
			imp:    make([]float64, d),
		}
		trees[t] = g.grow(len(X))
		imps[t] = g.imp
		return nil
	})
	if err != nil {
		return err
	}

	total := make([]float64, d)
	for _, imp := range imps {
		normalize(imp)
		for j, v := range imp {
			total[j] += v
		}
	}
	normalize(total)
	c.trees = trees
	c.importances = total
	return nil
}

// FeatureImportances returns the normalized mean decrease in impurity per
// feature, summing to 1 unless every tree is a single leaf.
func (c *Classifier) FeatureImportances() []float64 {
	return append([]float64(nil), c.importances...)
}

// PredictProba returns the mean positive-class probability across trees.
func (c *Classifier) PredictProba(x []float64) float64 {
	var s float64
	for i := range c.trees {
		s += c.trees[i].Evaluate(x)
	}
	return s / float64(len(c.trees))
}

func (c *Classifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		if c.PredictProba(x) > 0.5 {
			out[i] = 1
		}
	}
	return out
}

func normalize(v []float64) {
	var s float64
	for _, x := range v {
		s += x
	}
	if s <= 0 {
		return
	}
	for i := range v {
		v[i] /= s
	}
}
