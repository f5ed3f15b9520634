// Package resample balances class counts by synthesizing minority samples.
package resample

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/parallel"
)

// SMOTE oversamples every class up to the majority count by interpolating
// between a sample and one of its KNeighbors nearest same-class neighbours.
type SMOTE struct {
	KNeighbors  int
	RandomState int64
	NJobs       int
}

// Report describes a resampling pass.
type Report struct {
	Before    map[int]int
	After     map[int]int
	Synthetic int
}

// FitResample returns the original rows followed by synthetic rows. Input
// slices are not modified.
func (s SMOTE) FitResample(ctx context.Context, X [][]float64, y []int) ([][]float64, []int, Report, error) {
	if len(X) != len(y) {
		return nil, nil, Report{}, fmt.Errorf("smote: %d rows vs %d labels", len(X), len(y))
	}
	k := s.KNeighbors
	if k <= 0 {
		k = 5
	}
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	if len(byClass) < 2 {
		return nil, nil, Report{}, fmt.Errorf("smote: need at least two classes, got %d", len(byClass))
	}
	classes := make([]int, 0, len(byClass))
	majority := 0
	for c, idx := range byClass {
		classes = append(classes, c)
		if len(idx) > majority {
			majority = len(idx)
		}
	}
	sort.Ints(classes)

	rep := Report{Before: map[int]int{}, After: map[int]int{}}
	outX := append([][]float64(nil), X...)
	outY := append([]int(nil), y...)
	rng := rand.New(rand.NewSource(s.RandomState))
	for _, c := range classes {
		members := byClass[c]
		rep.Before[c] = len(members)
		need := majority - len(members)
		if need == 0 {
			rep.After[c] = len(members)
			continue
		}
		if len(members) <= k {
			return nil, nil, Report{}, fmt.Errorf("smote: class %d has %d samples, need more than k_neighbors=%d", c, len(members), k)
		}
		pts := make([][]float64, len(members))
		for i, m := range members {
			pts[i] = X[m]
		}
		nn, err := neighbours(ctx, pts, k, s.NJobs)
		if err != nil {
			return nil, nil, Report{}, err
		}
		for n := 0; n < need; n++ {
			row := rng.Intn(len(pts) * k)
			i, col := row/k, row%k
			step := rng.Float64()
			a, b := pts[i], pts[nn[i][col]]
			syn := make([]float64, len(a))
			for j := range a {
				syn[j] = a[j] + step*(b[j]-a[j])
			}
			outX = append(outX, syn)
			outY = append(outY, c)
		}
		rep.Synthetic += need
		rep.After[c] = majority
	}
	return outX, outY, rep, nil
}

// neighbours returns, for every point, the indices of its k nearest other
// points by squared euclidean distance, ties broken by index. A k-d tree
// finds the k-th distance; a radius query at that distance then collects
// every tied point so the index order decides.
func neighbours(ctx context.Context, pts [][]float64, k, nJobs int) ([][]int, error) {
	n := len(pts)
	all := make(points, n)
	for i, p := range pts {
		all[i] = point{x: p, i: i}
	}
	tree := kdtree.New(append(points(nil), all...), false)

	out := make([][]int, n)
	const chunk = 256
	chunks := (n + chunk - 1) / chunk
	err := parallel.For(ctx, chunks, nJobs, func(ctx context.Context, c int) error {
		hi := (c + 1) * chunk
		if hi > n {
			hi = n
		}
		for i := c * chunk; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			nk := kdtree.NewNKeeper(k + 1)
			tree.NearestSet(nk, all[i])
			radius := 0.0
			for _, h := range nk.Heap {
				if h.Comparable != nil && h.Dist > radius {
					radius = h.Dist
				}
			}
			dk := kdtree.NewDistKeeper(radius)
			tree.NearestSet(dk, all[i])
			best := make([]cand, 0, len(dk.Heap))
			for _, h := range dk.Heap {
				if h.Comparable == nil {
					continue
				}
				if j := h.Comparable.(point).i; j != i {
					best = append(best, cand{d: h.Dist, j: j})
				}
			}
			sort.Slice(best, func(a, b int) bool { return less(best[a], best[b]) })
			if len(best) > k {
				best = best[:k]
			}
			idx := make([]int, len(best))
			for t, b := range best {
				idx[t] = b.j
			}
			out[i] = idx
		}
		return nil
	})
	return out, err
}

type cand struct {
	d float64
	j int
}

func less(a, b cand) bool {
	if a.d != b.d {
		return a.d < b.d
	}
	return a.j < b.j
}

// point is a row that remembers its position in the class.
type point struct {
	x []float64
	i int
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 { return p.x[d] - c.(point).x[d] }
func (p point) Dims() int                                          { return len(p.x) }
func (p point) Distance(c kdtree.Comparable) float64               { return sqdist(p.x, c.(point).x) }

type points []point

func (s points) Index(i int) kdtree.Comparable         { return s[i] }
func (s points) Len() int                              { return len(s) }
func (s points) Slice(start, end int) kdtree.Interface { return s[start:end] }
func (s points) Pivot(d kdtree.Dim) int                { return plane{points: s, dim: d}.Pivot() }

// plane orders points along one dimension for tree construction.
type plane struct {
	points
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool { return p.points[i].x[p.dim] < p.points[j].x[p.dim] }
func (p plane) Swap(i, j int)      { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], dim: p.dim}
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func sqdist(a, b []float64) float64 {
	var s float64
	for j := range a {
		d := a[j] - b[j]
		s += d * d
	}
	return s
}
