// Package tree is the flat, JSON serializable decision tree shared by the
// forest and boosting learners.
package tree

// A Node is a split of the form "x[FeatureIndex] <= Threshold ?". A child
// index points into Tree.Nodes, or into Tree.Outputs when the matching
// IsLeaf flag is set.
type Node struct {
	FeatureIndex int     `json:"feature_index"`
	Threshold    float64 `json:"threshold"`
	LeftChild    int     `json:"left_child"`
	LeftIsLeaf   bool    `json:"left_is_leaf"`
	RightChild   int     `json:"right_child"`
	RightIsLeaf  bool    `json:"right_is_leaf"`
}

// Tree holds its internal nodes with the root at index 0. A tree with no
// nodes is a single leaf, Outputs[0].
type Tree struct {
	Nodes   []Node    `json:"nodes"`
	Outputs []float64 `json:"outputs"`
}

// Leaf returns the index into Outputs that x lands in.
func (t *Tree) Leaf(x []float64) int {
	if len(t.Nodes) == 0 {
		return 0
	}
	n := 0
	for {
		nd := &t.Nodes[n]
		if x[nd.FeatureIndex] <= nd.Threshold {
			if nd.LeftIsLeaf {
				return nd.LeftChild
			}
			n = nd.LeftChild
		} else {
			if nd.RightIsLeaf {
				return nd.RightChild
			}
			n = nd.RightChild
		}
	}
}

func (t *Tree) Evaluate(x []float64) float64 {
	return t.Outputs[t.Leaf(x)]
}

// NumLeaves is the number of outputs.
func (t *Tree) NumLeaves() int { return len(t.Outputs) }

// An Ensemble outputs the sum of its trees.
type Ensemble struct {
	Trees []Tree `json:"trees"`
}

func (e *Ensemble) Evaluate(x []float64) float64 {
	var sum float64
	for i := range e.Trees {
		sum += e.Trees[i].Evaluate(x)
	}
	return sum
}

// Slot is a child position awaiting a split or a leaf. Parent -1 is the root.
type Slot struct {
	Parent int
	Right  bool
}

var Root = Slot{Parent: -1}

// Builder grows a tree one split at a time in any order.
type Builder struct {
	nodes []Node
}

// Split turns the slot into an internal node and returns its two child slots.
// The root slot must be split first.
func (b *Builder) Split(at Slot, feature int, threshold float64) (left, right Slot) {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{FeatureIndex: feature, Threshold: threshold})
	b.attach(at, idx, false)
	return Slot{Parent: idx}, Slot{Parent: idx, Right: true}
}

func (b *Builder) attach(at Slot, child int, leaf bool) {
	if at.Parent < 0 {
		return
	}
	p := &b.nodes[at.Parent]
	if at.Right {
		p.RightChild, p.RightIsLeaf = child, leaf
	} else {
		p.LeftChild, p.LeftIsLeaf = child, leaf
	}
}

// Finish assigns outputs[i] to leaves[i] and returns the tree.
func (b *Builder) Finish(leaves []Slot, outputs []float64) Tree {
	if len(b.nodes) == 0 {
		return Tree{Outputs: []float64{outputs[0]}}
	}
	for i, s := range leaves {
		b.attach(s, i, true)
	}
	return Tree{Nodes: b.nodes, Outputs: append([]float64(nil), outputs...)}
}
