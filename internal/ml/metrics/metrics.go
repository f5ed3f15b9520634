// Package metrics scores binary predictions with the positive label 1.
// Ratios with a zero denominator score 0.
package metrics

import "fmt"

type Scores struct {
	Accuracy  float64 `json:"accuracy" csv:"accuracy"`
	Precision float64 `json:"precision" csv:"precision"`
	Recall    float64 `json:"recall" csv:"recall"`
	F1        float64 `json:"f1" csv:"f1"`
}

// Map returns the scores keyed by metric name, in tracker form.
func (s Scores) Map() map[string]float64 {
	return map[string]float64{
		"accuracy":  s.Accuracy,
		"precision": s.Precision,
		"recall":    s.Recall,
		"f1":        s.F1,
	}
}

type confusion struct {
	tp, fp, fn, tn int
}

func count(yTrue, yPred []int) confusion {
	var c confusion
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			c.tp++
		case yPred[i] == 1:
			c.fp++
		case yTrue[i] == 1:
			c.fn++
		default:
			c.tn++
		}
	}
	return c
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func Evaluate(yTrue, yPred []int) (Scores, error) {
	if len(yTrue) != len(yPred) {
		return Scores{}, fmt.Errorf("metrics: %d labels vs %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Scores{}, fmt.Errorf("metrics: no samples")
	}
	c := count(yTrue, yPred)
	s := Scores{
		Accuracy:  ratio(c.tp+c.tn, len(yTrue)),
		Precision: ratio(c.tp, c.tp+c.fp),
		Recall:    ratio(c.tp, c.tp+c.fn),
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s, nil
}

// Score returns a single named metric.
func Score(name string, yTrue, yPred []int) (float64, error) {
	s, err := Evaluate(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	v, ok := s.Map()[name]
	if !ok {
		return 0, fmt.Errorf("metrics: unknown scoring %q", name)
	}
	return v, nil
}

// Known reports whether name is a supported scoring metric.
func Known(name string) bool {
	_, ok := Scores{}.Map()[name]
	return ok
}
