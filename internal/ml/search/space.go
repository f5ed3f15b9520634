package search

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Distribution draws one hyperparameter value.
type Distribution interface {
	Sample(rng *rand.Rand) any
	String() string
}

// IntUniform draws integers from [Low, High).
type IntUniform struct {
	Low, High int
}

func (d IntUniform) Sample(rng *rand.Rand) any {
	return d.Low + rng.Intn(d.High-d.Low)
}

func (d IntUniform) String() string { return fmt.Sprintf("randint(%d, %d)", d.Low, d.High) }

// Uniform draws floats from [Loc, Loc+Scale].
type Uniform struct {
	Loc, Scale float64
}

func (d Uniform) Sample(rng *rand.Rand) any {
	return d.Loc + rng.Float64()*d.Scale
}

func (d Uniform) String() string { return fmt.Sprintf("uniform(loc=%g, scale=%g)", d.Loc, d.Scale) }

type Choice struct {
	Values []any
}

func (d Choice) Sample(rng *rand.Rand) any {
	return d.Values[rng.Intn(len(d.Values))]
}

func (d Choice) String() string {
	parts := make([]string, len(d.Values))
	for i, v := range d.Values {
		parts[i] = fmt.Sprint(v)
	}
	return "choice[" + strings.Join(parts, ", ") + "]"
}

type Param struct {
	Name string
	Dist Distribution
}

// Space is an ordered set of named distributions. Sampling walks it by name
// so the draw sequence does not depend on declaration order.
type Space []Param

func (s Space) Sample(rng *rand.Rand) map[string]any {
	ordered := append(Space(nil), s...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })
	out := make(map[string]any, len(ordered))
	for _, p := range ordered {
		out[p.Name] = p.Dist.Sample(rng)
	}
	return out
}

func (s Space) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("search: empty parameter space")
	}
	seen := map[string]bool{}
	for _, p := range s {
		if p.Name == "" {
			return fmt.Errorf("search: parameter without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("search: duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		switch d := p.Dist.(type) {
		case IntUniform:
			if d.High <= d.Low {
				return fmt.Errorf("search: %s: randint high %d must exceed low %d", p.Name, d.High, d.Low)
			}
		case Uniform:
			if d.Scale < 0 {
				return fmt.Errorf("search: %s: uniform scale must be non-negative", p.Name)
			}
		case Choice:
			if len(d.Values) == 0 {
				return fmt.Errorf("search: %s: empty choice", p.Name)
			}
		case nil:
			return fmt.Errorf("search: %s: missing distribution", p.Name)
		}
	}
	return nil
}

// DefaultSpace is the LightGBM search space used when no file is given.
func DefaultSpace() Space {
	return Space{
		{Name: "n_estimators", Dist: IntUniform{Low: 100, High: 500}},
		{Name: "max_depth", Dist: IntUniform{Low: 5, High: 50}},
		{Name: "learning_rate", Dist: Uniform{Loc: 0.01, Scale: 0.2}},
		{Name: "num_leaves", Dist: IntUniform{Low: 20, High: 100}},
		{Name: "boosting_type", Dist: Choice{Values: []any{"gbdt", "goss"}}},
	}
}

type yamlSpace struct {
	Params []yamlParam `yaml:"params"`
}

type yamlParam struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"`
	Low    int     `yaml:"low"`
	High   int     `yaml:"high"`
	Loc    float64 `yaml:"loc"`
	Scale  float64 `yaml:"scale"`
	Values []any   `yaml:"values"`
}

// ParseSpace reads a space document:
//
//	params:
//	  - {name: n_estimators, kind: randint, low: 100, high: 500}
//	  - {name: learning_rate, kind: uniform, loc: 0.01, scale: 0.2}
//	  - {name: boosting_type, kind: choice, values: [gbdt, goss]}
func ParseSpace(data []byte) (Space, error) {
	var doc yamlSpace
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("search: parse space: %w", err)
	}
	s := make(Space, 0, len(doc.Params))
	for _, p := range doc.Params {
		var d Distribution
		switch strings.ToLower(strings.TrimSpace(p.Kind)) {
		case "randint":
			d = IntUniform{Low: p.Low, High: p.High}
		case "uniform":
			d = Uniform{Loc: p.Loc, Scale: p.Scale}
		case "choice":
			d = Choice{Values: p.Values}
		default:
			return nil, fmt.Errorf("search: %s: unknown kind %q", p.Name, p.Kind)
		}
		s = append(s, Param{Name: p.Name, Dist: d})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
