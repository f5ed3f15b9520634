package search

import (
	"fmt"
	"sort"
)

type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold splits sample indices into k folds without shuffling.
// Each class is spread over the folds in order of appearance so every fold
// keeps roughly the overall class ratio.
func StratifiedKFold(y []int, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("search: cv must be at least 2, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("search: %d samples cannot fill %d folds", len(y), k)
	}
	counts := map[int]int{}
	for _, c := range y {
		counts[c]++
	}
	classes := make([]int, 0, len(counts))
	for c, n := range counts {
		if n < k {
			return nil, fmt.Errorf("search: class %d has %d samples, fewer than %d folds", c, n, k)
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)

	// Deal the sorted label sequence round-robin to decide how many samples
	// of each class land in each fold.
	sorted := append([]int(nil), y...)
	sort.Ints(sorted)
	alloc := make([]map[int]int, k)
	for f := range alloc {
		alloc[f] = map[int]int{}
	}
	for i, c := range sorted {
		alloc[i%k][c]++
	}

	fold := make([]int, len(y))
	next := map[int]int{}
	left := map[int]int{}
	for _, c := range classes {
		left[c] = alloc[0][c]
	}
	for i, c := range y {
		for left[c] == 0 {
			next[c]++
			left[c] = alloc[next[c]][c]
		}
		fold[i] = next[c]
		left[c]--
	}

	out := make([]Fold, k)
	for i, f := range fold {
		for j := range out {
			if j == f {
				out[j].Test = append(out[j].Test, i)
			} else {
				out[j].Train = append(out[j].Train, i)
			}
		}
	}
	return out, nil
}
