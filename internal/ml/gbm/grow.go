package gbm

import (
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/binning"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/tree"
)

type binStat struct {
	g, h float64
	n    int
}

// histogram is one binStat per (feature, bin), flattened feature-major.
type histogram []binStat

type candidate struct {
	feature        int
	bin            int
	gain           float64
	lg, lh, rg, rh float64
	ln, rn         int
}

type leaf struct {
	slot  tree.Slot
	idx   []int
	depth int
	g, h  float64
	hist  histogram
	best  candidate
	ok    bool
}

type grower struct {
	p      Params
	mapper *binning.Mapper
	bins   [][]uint8
	grad   []float64
	hess   []float64
}

// grow builds one tree over the sample rows idx. It reports false when the
// root admits no split, which ends boosting.
func (g *grower) grow(idx []int, grad, hess []float64) (tree.Tree, bool) {
	g.grad, g.hess = grad, hess
	root := &leaf{slot: tree.Root, idx: idx}
	for _, i := range idx {
		root.g += grad[i]
		root.h += hess[i]
	}
	root.hist = g.histogram(idx)
	g.evaluate(root)
	if !root.ok {
		return tree.Tree{}, false
	}

	var b tree.Builder
	leaves := []*leaf{root}
	for len(leaves) < g.p.NumLeaves {
		at := -1
		for k, l := range leaves {
			if l.ok && (at < 0 || l.best.gain > leaves[at].best.gain) {
				at = k
			}
		}
		if at < 0 {
			break
		}
		left, right := g.split(&b, leaves[at])
		leaves[at] = left
		leaves = append(leaves, right)
	}

	slots := make([]tree.Slot, len(leaves))
	outputs := make([]float64, len(leaves))
	for k, l := range leaves {
		slots[k] = l.slot
		outputs[k] = g.leafValue(l.g, l.h)
	}
	return b.Finish(slots, outputs), true
}

func (g *grower) leafValue(sumG, sumH float64) float64 {
	return -sumG / (sumH + g.p.RegLambda + 1e-15) * g.p.LearningRate
}

func (g *grower) histogram(idx []int) histogram {
	h := make(histogram, len(g.bins)*binning.MaxBins)
	for j, col := range g.bins {
		base := j * binning.MaxBins
		for _, i := range idx {
			s := &h[base+int(col[i])]
			s.g += g.grad[i]
			s.h += g.hess[i]
			s.n++
		}
	}
	return h
}

func subtract(parent, child histogram) histogram {
	out := make(histogram, len(parent))
	for k := range parent {
		out[k] = binStat{
			g: parent[k].g - child[k].g,
			h: parent[k].h - child[k].h,
			n: parent[k].n - child[k].n,
		}
	}
	return out
}

func (g *grower) score(sumG, sumH float64) float64 {
	return sumG * sumG / (sumH + g.p.RegLambda + 1e-15)
}

// evaluate finds the best split of l. Ties keep the lowest feature and bin.
func (g *grower) evaluate(l *leaf) {
	l.ok = false
	if g.p.MaxDepth > 0 && l.depth >= g.p.MaxDepth {
		return
	}
	if len(l.idx) < 2*g.p.MinChildSamples {
		return
	}
	parent := g.score(l.g, l.h)
	for j := range g.bins {
		nb := g.mapper.NumBins(j)
		base := j * binning.MaxBins
		var lg, lh float64
		var ln int
		for b := 0; b < nb-1; b++ {
			s := l.hist[base+b]
			lg += s.g
			lh += s.h
			ln += s.n
			if ln < g.p.MinChildSamples || lh < g.p.MinChildWeight {
				continue
			}
			rn := len(l.idx) - ln
			if rn < g.p.MinChildSamples {
				break
			}
			rg, rh := l.g-lg, l.h-lh
			if rh < g.p.MinChildWeight {
				continue
			}
			gain := g.score(lg, lh) + g.score(rg, rh) - parent
			if gain > 0 && (!l.ok || gain > l.best.gain) {
				l.best = candidate{feature: j, bin: b, gain: gain, lg: lg, lh: lh, rg: rg, rh: rh, ln: ln, rn: rn}
				l.ok = true
			}
		}
	}
}

func (g *grower) split(b *tree.Builder, l *leaf) (*leaf, *leaf) {
	c := l.best
	ls, rs := b.Split(l.slot, c.feature, g.mapper.Threshold(c.feature, c.bin))
	col := g.bins[c.feature]
	li := make([]int, 0, c.ln)
	ri := make([]int, 0, c.rn)
	for _, i := range l.idx {
		if int(col[i]) <= c.bin {
			li = append(li, i)
		} else {
			ri = append(ri, i)
		}
	}
	left := &leaf{slot: ls, idx: li, depth: l.depth + 1, g: c.lg, h: c.lh}
	right := &leaf{slot: rs, idx: ri, depth: l.depth + 1, g: c.rg, h: c.rh}
	if len(li) <= len(ri) {
		left.hist = g.histogram(li)
		right.hist = subtract(l.hist, left.hist)
	} else {
		right.hist = g.histogram(ri)
		left.hist = subtract(l.hist, right.hist)
	}
	l.hist = nil
	g.evaluate(left)
	g.evaluate(right)
	return left, right
}
