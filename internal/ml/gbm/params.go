package gbm

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	BoostingGBDT = "gbdt"
	BoostingGOSS = "goss"
)

type Params struct {
	BoostingType    string  `json:"boosting_type"`
	NEstimators     int     `json:"n_estimators"`
	LearningRate    float64 `json:"learning_rate"`
	NumLeaves       int     `json:"num_leaves"`
	MaxDepth        int     `json:"max_depth"` // <= 0 means unlimited
	MinChildSamples int     `json:"min_child_samples"`
	MinChildWeight  float64 `json:"min_child_weight"`
	RegLambda       float64 `json:"reg_lambda"`
	MaxBin          int     `json:"max_bin"`
	TopRate         float64 `json:"top_rate"`
	OtherRate       float64 `json:"other_rate"`
	RandomState     int64   `json:"random_state"`
}

func DefaultParams() Params {
	return Params{
		BoostingType:    BoostingGBDT,
		NEstimators:     100,
		LearningRate:    0.1,
		NumLeaves:       31,
		MaxDepth:        -1,
		MinChildSamples: 20,
		MinChildWeight:  1e-3,
		MaxBin:          255,
		TopRate:         0.2,
		OtherRate:       0.1,
		RandomState:     42,
	}
}

func (p Params) Validate() error {
	switch p.BoostingType {
	case BoostingGBDT, BoostingGOSS:
	default:
		return fmt.Errorf("gbm: unsupported boosting_type %q", p.BoostingType)
	}
	switch {
	case p.NEstimators <= 0:
		return fmt.Errorf("gbm: n_estimators must be positive, got %d", p.NEstimators)
	case p.LearningRate <= 0:
		return fmt.Errorf("gbm: learning_rate must be positive, got %v", p.LearningRate)
	case p.NumLeaves < 2:
		return fmt.Errorf("gbm: num_leaves must be at least 2, got %d", p.NumLeaves)
	case p.MinChildSamples < 1:
		return fmt.Errorf("gbm: min_child_samples must be positive, got %d", p.MinChildSamples)
	case p.MaxBin < 2 || p.MaxBin > 256:
		return fmt.Errorf("gbm: max_bin must be in [2, 256], got %d", p.MaxBin)
	case p.RegLambda < 0:
		return fmt.Errorf("gbm: reg_lambda must be non-negative, got %v", p.RegLambda)
	}
	if p.BoostingType == BoostingGOSS {
		if p.TopRate <= 0 || p.OtherRate <= 0 || p.TopRate+p.OtherRate > 1 {
			return fmt.Errorf("gbm: goss needs top_rate, other_rate > 0 with sum <= 1")
		}
	}
	return nil
}

// With returns a copy of p with the named parameters replaced.
func (p Params) With(values map[string]any) (Params, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.set(k, values[k]); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (p *Params) set(name string, v any) error {
	var err error
	switch name {
	case "boosting_type":
		p.BoostingType, err = asString(v)
		p.BoostingType = strings.ToLower(p.BoostingType)
	case "n_estimators":
		p.NEstimators, err = asInt(v)
	case "learning_rate":
		p.LearningRate, err = asFloat(v)
	case "num_leaves":
		p.NumLeaves, err = asInt(v)
	case "max_depth":
		p.MaxDepth, err = asInt(v)
	case "min_child_samples":
		p.MinChildSamples, err = asInt(v)
	case "min_child_weight":
		p.MinChildWeight, err = asFloat(v)
	case "reg_lambda":
		p.RegLambda, err = asFloat(v)
	case "max_bin":
		p.MaxBin, err = asInt(v)
	case "top_rate":
		p.TopRate, err = asFloat(v)
	case "other_rate":
		p.OtherRate, err = asFloat(v)
	case "random_state":
		var n int
		n, err = asInt(v)
		p.RandomState = int64(n)
	default:
		return fmt.Errorf("gbm: unknown parameter %q", name)
	}
	if err != nil {
		return fmt.Errorf("gbm: parameter %q: %w", name, err)
	}
	return nil
}

// Map returns every parameter by name.
func (p Params) Map() map[string]any {
	return map[string]any{
		"boosting_type":     p.BoostingType,
		"n_estimators":      p.NEstimators,
		"learning_rate":     p.LearningRate,
		"num_leaves":        p.NumLeaves,
		"max_depth":         p.MaxDepth,
		"min_child_samples": p.MinChildSamples,
		"min_child_weight":  p.MinChildWeight,
		"reg_lambda":        p.RegLambda,
		"max_bin":           p.MaxBin,
		"top_rate":          p.TopRate,
		"other_rate":        p.OtherRate,
		"random_state":      p.RandomState,
	}
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int(t), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unsupported type %T", v)
	}
	return s, nil
}
