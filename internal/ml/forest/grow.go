package forest

import (
	"math/rand"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/binning"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/tree"
)

type grower struct {
	cfg    Config
	mtry   int
	rng    *rand.Rand
	mapper *binning.Mapper
	bins   [][]uint8
	y      []int
	w      []float64
	imp    []float64
	hist   [binning.MaxBins][2]float64
}

type pending struct {
	slot  tree.Slot
	idx   []int
	depth int
}

type split struct {
	feature  int
	bin      int
	decrease float64
}

func (g *grower) grow(n int) tree.Tree {
	g.w = make([]float64, n)
	var idx []int
	if g.cfg.Bootstrap {
		for k := 0; k < n; k++ {
			g.w[g.rng.Intn(n)]++
		}
		for i, w := range g.w {
			if w > 0 {
				idx = append(idx, i)
			}
		}
	} else {
		idx = make([]int, n)
		for i := range idx {
			idx[i] = i
			g.w[i] = 1
		}
	}

	var (
		b       tree.Builder
		leaves  []tree.Slot
		outputs []float64
	)
	stack := []pending{{slot: tree.Root, idx: idx}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c0, c1 := g.counts(p.idx)
		best, ok := g.bestSplit(p, c0, c1)
		if !ok {
			leaves = append(leaves, p.slot)
			outputs = append(outputs, c1/(c0+c1))
			continue
		}
		g.imp[best.feature] += best.decrease
		th := g.mapper.Threshold(best.feature, best.bin)
		l, r := b.Split(p.slot, best.feature, th)
		col := g.bins[best.feature]
		var li, ri []int
		for _, i := range p.idx {
			if int(col[i]) <= best.bin {
				li = append(li, i)
			} else {
				ri = append(ri, i)
			}
		}
		stack = append(stack,
			pending{slot: r, idx: ri, depth: p.depth + 1},
			pending{slot: l, idx: li, depth: p.depth + 1},
		)
	}
	return b.Finish(leaves, outputs)
}

func (g *grower) counts(idx []int) (c0, c1 float64) {
	for _, i := range idx {
		if g.y[i] == 1 {
			c1 += g.w[i]
		} else {
			c0 += g.w[i]
		}
	}
	return c0, c1
}

func gini(c0, c1 float64) float64 {
	t := c0 + c1
	if t == 0 {
		return 0
	}
	p0, p1 := c0/t, c1/t
	return 1 - p0*p0 - p1*p1
}

// bestSplit samples features without replacement until mtry of them turned
// out to be non-constant in the node, keeping the largest impurity decrease.
func (g *grower) bestSplit(p pending, c0, c1 float64) (split, bool) {
	if c0 == 0 || c1 == 0 || len(p.idx) < g.cfg.MinSamplesSplit {
		return split{}, false
	}
	if g.cfg.MaxDepth > 0 && p.depth >= g.cfg.MaxDepth {
		return split{}, false
	}
	total := c0 + c1
	parent := total * gini(c0, c1)
	best := split{feature: -1}
	visited := 0
	for _, j := range g.rng.Perm(len(g.bins)) {
		if visited >= g.mtry && best.feature >= 0 {
			break
		}
		nb := g.mapper.NumBins(j)
		for b := 0; b < nb; b++ {
			g.hist[b] = [2]float64{}
		}
		col := g.bins[j]
		lo, hi := nb, -1
		for _, i := range p.idx {
			b := int(col[i])
			g.hist[b][g.y[i]] += g.w[i]
			if b < lo {
				lo = b
			}
			if b > hi {
				hi = b
			}
		}
		if lo == hi {
			continue
		}
		visited++
		var l0, l1 float64
		for b := lo; b < hi; b++ {
			l0 += g.hist[b][0]
			l1 += g.hist[b][1]
			if l0+l1 == 0 {
				continue
			}
			r0, r1 := c0-l0, c1-l1
			dec := parent - (l0+l1)*gini(l0, l1) - (r0+r1)*gini(r0, r1)
			if dec > best.decrease+1e-12 || best.feature < 0 {
				best = split{feature: j, bin: b, decrease: dec}
			}
		}
	}
	if best.feature < 0 || best.decrease <= 0 {
		return split{}, false
	}
	return best, true
}
