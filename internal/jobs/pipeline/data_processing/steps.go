package data_processing

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/encoding"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/forest"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/resample"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/stats"
)

type skewRow struct {
	Column      string  `csv:"column"`
	Skewness    float64 `csv:"skewness"`
	Transformed bool    `csv:"transformed"`
	SkewAfter   float64 `csv:"skewness_after"`
}

type importanceRow struct {
	Rank       int     `csv:"rank"`
	Feature    string  `csv:"feature"`
	Importance float64 `csv:"importance"`
	Selected   bool    `csv:"selected"`
}

// encode label-encodes every configured categorical column present in
// train. Encoders are fit on train; test labels never seen in train get new
// codes after the fitted ones. It returns the per-column mappings and the
// number of unseen test labels.
func (p *Pipeline) encode(train, test *dataset.Frame) (map[string]map[string]int, int, error) {
	mappings := map[string]map[string]int{}
	unseen := 0
	for _, col := range p.cfg.CategoricalColumns {
		if !train.Has(col) {
			p.log.Warn("categorical column not present, skipping", "column", col)
			continue
		}
		if !test.Has(col) {
			return nil, 0, fmt.Errorf("column %q missing from test", col)
		}
		trainVals, _ := train.Column(col)
		testVals, _ := test.Column(col)
		enc := new(encoding.LabelEncoder).Fit(trainVals)
		if added := enc.Extend(testVals); len(added) > 0 {
			unseen += len(added)
			p.log.Warn("test labels unseen in train", "column", col, "labels", added)
		}
		if err := setCodes(train, col, enc, trainVals); err != nil {
			return nil, 0, err
		}
		if err := setCodes(test, col, enc, testVals); err != nil {
			return nil, 0, err
		}
		mappings[col] = enc.Mapping()
		p.log.Info("label mapping", "column", col, "mapping", mappings[col])
	}
	return mappings, unseen, nil
}

func setCodes(f *dataset.Frame, col string, enc *encoding.LabelEncoder, vals []string) error {
	codes, err := enc.Transform(vals)
	if err != nil {
		return fmt.Errorf("column %q: %w", col, err)
	}
	cells := make([]string, len(codes))
	for i, c := range codes {
		cells[i] = strconv.Itoa(c)
	}
	return f.SetColumn(col, cells)
}

// transformSkewed applies log1p to numerical columns whose train skewness
// exceeds the threshold, in both partitions.
func (p *Pipeline) transformSkewed(train, test *dataset.Frame) ([]skewRow, error) {
	var rows []skewRow
	for _, col := range p.cfg.NumericalColumns {
		if !train.Has(col) {
			p.log.Warn("numerical column not present, skipping", "column", col)
			continue
		}
		vals, err := train.Floats(col)
		if err != nil {
			return nil, err
		}
		r := skewRow{Column: col, Skewness: stats.Skewness(vals)}
		r.SkewAfter = r.Skewness
		if r.Skewness > p.cfg.SkewnessThreshold {
			logged := stats.Log1p(vals)
			if err := train.SetFloats(col, logged); err != nil {
				return nil, err
			}
			testVals, err := test.Floats(col)
			if err != nil {
				return nil, err
			}
			if err := test.SetFloats(col, stats.Log1p(testVals)); err != nil {
				return nil, err
			}
			r.Transformed = true
			r.SkewAfter = stats.Skewness(logged)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (p *Pipeline) features(f *dataset.Frame) []string {
	var out []string
	for _, c := range f.Columns() {
		if c != p.cfg.TargetColumn {
			out = append(out, c)
		}
	}
	return out
}

// balance oversamples the minority class with SMOTE and rebuilds the frame
// as features followed by the target.
func (p *Pipeline) balance(ctx context.Context, f *dataset.Frame) (*dataset.Frame, resample.Report, error) {
	cols := p.features(f)
	X, err := f.Matrix(cols)
	if err != nil {
		return nil, resample.Report{}, err
	}
	y, err := f.Labels(p.cfg.TargetColumn)
	if err != nil {
		return nil, resample.Report{}, err
	}
	sm := resample.SMOTE{
		KNeighbors:  p.cfg.SMOTENeighbors,
		RandomState: p.cfg.RandomState,
		NJobs:       p.cfg.NJobs,
	}
	Xr, yr, rep, err := sm.FitResample(ctx, X, y)
	if err != nil {
		return nil, rep, err
	}
	out, err := dataset.FromMatrix(cols, Xr, p.cfg.TargetColumn, yr)
	return out, rep, err
}

// selectFeatures ranks features by Random Forest impurity importance and
// keeps the top NoOfFeatures. Equal importances keep column order.
// candidates returns the configured feature candidates present in f, in
// frame order. Candidates dropped by an earlier selection are skipped.
func (p *Pipeline) candidates(f *dataset.Frame) ([]string, error) {
	if len(p.cfg.FeatureCandidates) == 0 {
		return p.features(f), nil
	}
	allowed := make(map[string]bool, len(p.cfg.FeatureCandidates))
	for _, c := range p.cfg.FeatureCandidates {
		if !f.Has(c) {
			p.log.Warn("feature candidate not present, skipping", "column", c)
			continue
		}
		allowed[c] = true
	}
	var out []string
	for _, c := range p.features(f) {
		if allowed[c] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("none of the feature candidates %v are in the data", p.cfg.FeatureCandidates)
	}
	return out, nil
}

func (p *Pipeline) selectFeatures(ctx context.Context, f *dataset.Frame) ([]string, []importanceRow, error) {
	cols, err := p.candidates(f)
	if err != nil {
		return nil, nil, err
	}
	X, err := f.Matrix(cols)
	if err != nil {
		return nil, nil, err
	}
	y, err := f.Labels(p.cfg.TargetColumn)
	if err != nil {
		return nil, nil, err
	}
	fc := forest.DefaultConfig()
	fc.NEstimators = p.cfg.ForestEstimators
	fc.RandomState = p.cfg.RandomState
	fc.NJobs = p.cfg.NJobs
	rf := forest.New(fc)
	if err := rf.Fit(ctx, X, y); err != nil {
		return nil, nil, err
	}
	imp := rf.FeatureImportances()
	order := make([]int, len(cols))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return imp[order[a]] > imp[order[b]] })

	k := p.cfg.NoOfFeatures
	if k > len(cols) {
		k = len(cols)
	}
	selected := make([]string, 0, k)
	rows := make([]importanceRow, len(order))
	for rank, j := range order {
		rows[rank] = importanceRow{Rank: rank + 1, Feature: cols[j], Importance: imp[j], Selected: rank < k}
		if rank < k {
			selected = append(selected, cols[j])
		}
	}
	return selected, rows, nil
}
