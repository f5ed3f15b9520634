package model_training

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/search"
)

type cvRow struct {
	Candidate  int     `csv:"candidate"`
	Rank       int     `csv:"rank_test_score"`
	MeanScore  float64 `csv:"mean_test_score"`
	StdScore   float64 `csv:"std_test_score"`
	FoldScores string  `csv:"split_test_scores"`
	FitSeconds float64 `csv:"mean_fit_time"`
	Params     string  `csv:"params"`
}

func cvRows(r *search.Result) ([]cvRow, error) {
	rows := make([]cvRow, 0, len(r.Candidates))
	for i, c := range r.Candidates {
		params, err := json.Marshal(c.Params)
		if err != nil {
			return nil, err
		}
		folds := make([]string, len(c.FoldScores))
		for j, s := range c.FoldScores {
			folds[j] = dataset.FormatFloat(s)
		}
		rows = append(rows, cvRow{
			Candidate:  i,
			Rank:       c.Rank,
			MeanScore:  c.MeanScore,
			StdScore:   c.StdScore,
			FoldScores: strings.Join(folds, " "),
			FitSeconds: c.FitTime.Seconds() / float64(max(len(c.FoldScores), 1)),
			Params:     string(params),
		})
	}
	return rows, nil
}

func writeCVResults(path string, r *search.Result) error {
	rows, err := cvRows(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
