// Package gbm is a histogram based gradient boosted tree classifier for
// binary labels. Trees grow leaf-wise, picking the leaf with the largest
// loss reduction next, up to NumLeaves leaves.
package gbm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/binning"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/tree"
)

type Classifier struct {
	Format    string      `json:"format"`
	Params    Params      `json:"params"`
	Features  []string    `json:"features,omitempty"`
	InitScore float64     `json:"init_score"`
	Trees     []tree.Tree `json:"trees"`
}

func New(p Params) *Classifier {
	return &Classifier{Params: p}
}

// Fit trains from scratch, replacing any previous trees.
func (c *Classifier) Fit(ctx context.Context, X [][]float64, y []int) error {
	p := c.Params
	if err := p.Validate(); err != nil {
		return err
	}
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("gbm: %d rows vs %d labels", n, len(y))
	}
	var pos float64
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("gbm: label %d at row %d is not binary", v, i)
		}
		pos += float64(v)
	}
	if c.Features != nil && len(c.Features) != len(X[0]) {
		return fmt.Errorf("gbm: %d feature names for %d columns", len(c.Features), len(X[0]))
	}

	mapper, err := binning.Fit(X, p.MaxBin)
	if err != nil {
		return err
	}
	bins := mapper.Transform(X)

	prior := math.Min(math.Max(pos/float64(n), 1e-15), 1-1e-15)
	c.InitScore = math.Log(prior / (1 - prior))
	c.Trees = nil

	score := make([]float64, n)
	for i := range score {
		score[i] = c.InitScore
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	rng := rand.New(rand.NewSource(p.RandomState))
	warmup := int(1 / p.LearningRate)
	g := &grower{p: p, mapper: mapper, bins: bins}

	for it := 0; it < p.NEstimators; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range score {
			pr := sigmoid(score[i])
			grad[i] = pr - float64(y[i])
			hess[i] = math.Max(pr*(1-pr), 1e-16)
		}
		idx, gs, hs := allRows(grad, hess)
		if p.BoostingType == BoostingGOSS && it >= warmup {
			idx, gs, hs = gossSample(rng, grad, hess, p.TopRate, p.OtherRate)
		}
		t, ok := g.grow(idx, gs, hs)
		if !ok {
			break
		}
		for i := range score {
			score[i] += t.Evaluate(X[i])
		}
		c.Trees = append(c.Trees, t)
	}
	c.Format = FormatVersion
	return nil
}

// Raw returns the log-odds for x.
func (c *Classifier) Raw(x []float64) float64 {
	s := c.InitScore
	for i := range c.Trees {
		s += c.Trees[i].Evaluate(x)
	}
	return s
}

func (c *Classifier) PredictProba(x []float64) float64 {
	return sigmoid(c.Raw(x))
}

func (c *Classifier) PredictOne(x []float64) int {
	if c.PredictProba(x) > 0.5 {
		return 1
	}
	return 0
}

func (c *Classifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = c.PredictOne(x)
	}
	return out
}

func (c *Classifier) NumFeatures() int { return len(c.Features) }

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// allRows indexes every sample with unit weight. gs and hs are indexed by
// sample id, not by position in idx.
func allRows(grad, hess []float64) ([]int, []float64, []float64) {
	idx := make([]int, len(grad))
	for i := range idx {
		idx[i] = i
	}
	return idx, grad, hess
}

// gossSample keeps the topRate share of samples with the largest |g*h| and
// a random otherRate share of the rest, up-weighting the latter.
func gossSample(rng *rand.Rand, grad, hess []float64, topRate, otherRate float64) ([]int, []float64, []float64) {
	n := len(grad)
	topK := int(topRate * float64(n))
	otherK := int(otherRate * float64(n))
	if topK < 1 || otherK < 1 || topK+otherK >= n {
		return allRows(grad, hess)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(grad[order[a]]*hess[order[a]]) > math.Abs(grad[order[b]]*hess[order[b]])
	})
	gs := make([]float64, n)
	hs := make([]float64, n)
	idx := make([]int, 0, topK+otherK)
	for _, i := range order[:topK] {
		idx = append(idx, i)
		gs[i], hs[i] = grad[i], hess[i]
	}
	mult := float64(n-topK) / float64(otherK)
	rest := order[topK:]
	for _, k := range rng.Perm(len(rest))[:otherK] {
		i := rest[k]
		idx = append(idx, i)
		gs[i], hs[i] = grad[i]*mult, hess[i]*mult
	}
	sort.Ints(idx)
	return idx, gs, hs
}
