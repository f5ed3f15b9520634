// Package encoding maps categorical labels to integer codes.
package encoding

import (
	"fmt"
	"sort"
	"strconv"
)

// LabelEncoder assigns codes 0..n-1 to the distinct labels of one column in
// sorted order. Labels that look numeric sort by value, the rest lexically.
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

func (e *LabelEncoder) Fit(values []string) *LabelEncoder {
	seen := map[string]struct{}{}
	for _, v := range values {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sortLabels(classes)
	e.classes = classes
	e.reindex()
	return e
}

func (e *LabelEncoder) reindex() {
	e.codes = make(map[string]int, len(e.classes))
	for i, c := range e.classes {
		e.codes[c] = i
	}
}

// Transform encodes values. An unseen label is an error.
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := e.codes[v]
		if !ok {
			return nil, fmt.Errorf("unseen label %q", v)
		}
		out[i] = code
	}
	return out, nil
}

// Extend appends unseen labels after the fitted classes, keeping existing
// codes stable, and reports which labels were added.
func (e *LabelEncoder) Extend(values []string) []string {
	var added []string
	for _, v := range values {
		if _, ok := e.codes[v]; ok {
			continue
		}
		e.codes[v] = len(e.classes)
		e.classes = append(e.classes, v)
		added = append(added, v)
	}
	return added
}

func (e *LabelEncoder) FitTransform(values []string) []int {
	e.Fit(values)
	out, _ := e.Transform(values)
	return out
}

func (e *LabelEncoder) Classes() []string { return append([]string(nil), e.classes...) }

// Mapping returns label -> code.
func (e *LabelEncoder) Mapping() map[string]int {
	out := make(map[string]int, len(e.codes))
	for k, v := range e.codes {
		out[k] = v
	}
	return out
}

func sortLabels(xs []string) {
	numeric := true
	nums := make(map[string]float64, len(xs))
	for _, x := range xs {
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[x] = f
	}
	if numeric {
		sort.Slice(xs, func(i, j int) bool { return nums[xs[i]] < nums[xs[j]] })
		return
	}
	sort.Strings(xs)
}
