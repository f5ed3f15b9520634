package model_training

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	jobrt "github.com/yungbote/hotel-reservation-prediction/internal/jobs/runtime"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/gbm"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/metrics"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/search"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
	"github.com/yungbote/hotel-reservation-prediction/internal/tracking"
)

const (
	groupDatasets = "datasets"
	groupModel    = "model"
	groupReports  = "reports"
)

type split struct {
	features []string
	X        [][]float64
	y        []int
}

func (p *Pipeline) load(path string) (*split, error) {
	f, err := dataset.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	if !f.Has(p.target) {
		return nil, fmt.Errorf("%s: column %q not found", path, p.target)
	}
	var features []string
	for _, c := range f.Columns() {
		if c != p.target {
			features = append(features, c)
		}
	}
	X, err := f.Matrix(features)
	if err != nil {
		return nil, err
	}
	y, err := f.Labels(p.target)
	if err != nil {
		return nil, err
	}
	return &split{features: features, X: X, y: y}, nil
}

func (p *Pipeline) factory(features []string) search.Factory {
	return func(params map[string]any) (search.Estimator, error) {
		gp := gbm.DefaultParams()
		gp.RandomState = p.settings.RandomState
		gp, err := gp.With(params)
		if err != nil {
			return nil, err
		}
		c := gbm.New(gp)
		c.Features = features
		return c, nil
	}
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	jc.Progress(pipeerr.StepLoad, 5, "Loading processed data")
	train, err := p.load(p.paths.ProcessedTrain)
	if err != nil {
		return jc.Fail(pipeerr.StepLoad, "failed to load processed train", err)
	}
	test, err := p.load(p.paths.ProcessedTest)
	if err != nil {
		return jc.Fail(pipeerr.StepLoad, "failed to load processed test", err)
	}
	if !sameColumns(train.features, test.features) {
		return jc.Fail(pipeerr.StepLoad, "train and test schemas differ",
			fmt.Errorf("train=%v test=%v", train.features, test.features))
	}
	p.log.Info("processed data loaded", "train_rows", len(train.y), "test_rows", len(test.y), "features", train.features)
	if p.tracker == nil {
		return jc.Fail(pipeerr.StepTrack, "no experiment tracker configured", errors.New("nil tracker"))
	}

	res := Result{ModelPath: p.paths.ModelOutput, Features: train.features}
	tags := map[string]string{
		"stage":      StageName,
		"scoring":    p.settings.Scoring,
		"n_features": strconv.Itoa(len(train.features)),
	}
	err = tracking.WithRun(jc.Ctx, p.tracker, StageName, tags, func(run *tracking.ActiveRun) error {
		res.RunID = run.ID().String()
		return p.train(jc, run, train, test, &res)
	})
	if err != nil {
		if _, ok := pipeerr.As(err); ok {
			return err
		}
		return jc.Fail(pipeerr.StepTrack, "experiment tracking failed", err)
	}

	p.metrics.SetModelScores(res.Scores.Map())
	p.log.Info("model training completed",
		"run_id", res.RunID,
		"model_path", res.ModelPath,
		"cv_score", res.CVScore,
		"accuracy", res.Scores.Accuracy,
		"precision", res.Scores.Precision,
		"recall", res.Scores.Recall,
		"f1", res.Scores.F1,
	)
	jc.Succeed(pipeerr.StepTrack, res)
	return nil
}

func (p *Pipeline) train(jc *jobrt.Context, run *tracking.ActiveRun, train, test *split, res *Result) error {
	ctx := jc.Ctx

	jc.Progress(pipeerr.StepTrack, 10, "Logging datasets")
	for _, path := range []string{p.paths.ProcessedTrain, p.paths.ProcessedTest} {
		if _, err := run.LogArtifact(ctx, path, groupDatasets); err != nil {
			return jc.Fail(pipeerr.StepTrack, "failed to log dataset", err)
		}
	}

	jc.Progress(pipeerr.StepTrain, 20, "Running hyperparameter search")
	sctx, end := jc.StepSpan(pipeerr.StepTrain)
	found, err := search.RandomizedSearch(sctx, p.factory(train.features), p.space, p.settings, train.X, train.y, p.log)
	end(err)
	if err != nil {
		return jc.Fail(pipeerr.StepTrain, "failed to train model", err)
	}
	model, ok := found.Best.(*gbm.Classifier)
	if !ok {
		return jc.Fail(pipeerr.StepTrain, "unexpected estimator", fmt.Errorf("got %T", found.Best))
	}
	res.BestParams = found.BestParams()
	res.CVScore = found.BestScore()
	p.log.Info("best parameters found", "params", res.BestParams, "cv_"+p.settings.Scoring, res.CVScore)

	jc.Progress(pipeerr.StepEvaluate, 70, "Evaluating model")
	scores, err := metrics.Evaluate(test.y, model.Predict(test.X))
	if err != nil {
		return jc.Fail(pipeerr.StepEvaluate, "failed to evaluate model", err)
	}
	res.Scores = scores

	jc.Progress(pipeerr.StepSave, 80, "Saving model")
	if err := model.SaveFile(p.paths.ModelOutput); err != nil {
		return jc.Fail(pipeerr.StepSave, "failed to save model", err)
	}
	cvPath := filepath.Join(filepath.Dir(p.paths.ModelOutput), CVResultsFile)
	if err := writeCVResults(cvPath, found); err != nil {
		return jc.Fail(pipeerr.StepSave, "failed to write cv results", err)
	}
	p.log.Info("model saved", "path", p.paths.ModelOutput)

	jc.Progress(pipeerr.StepTrack, 90, "Logging run")
	if _, err := run.LogArtifact(ctx, p.paths.ModelOutput, groupModel); err != nil {
		return jc.Fail(pipeerr.StepTrack, "failed to log model", err)
	}
	for _, path := range p.reportFiles(cvPath) {
		if _, err := run.LogArtifact(ctx, path, groupReports); err != nil {
			return jc.Fail(pipeerr.StepTrack, "failed to log report", err)
		}
	}
	params := model.Params.Map()
	params["cv_"+p.settings.Scoring] = res.CVScore
	params["n_iter"] = p.settings.NIter
	params["cv"] = p.settings.CV
	if err := run.LogParams(ctx, params); err != nil {
		return jc.Fail(pipeerr.StepTrack, "failed to log params", err)
	}
	if err := run.LogMetrics(ctx, scores.Map()); err != nil {
		return jc.Fail(pipeerr.StepTrack, "failed to log metrics", err)
	}
	return nil
}

// reportFiles lists preprocessing reports that exist, then the CV results.
func (p *Pipeline) reportFiles(cvPath string) []string {
	var out []string
	if p.paths.ReportsDir != "" {
		entries, err := os.ReadDir(p.paths.ReportsDir)
		if err == nil {
			for _, e := range entries {
				if e.Type().IsRegular() {
					out = append(out, filepath.Join(p.paths.ReportsDir, e.Name()))
				}
			}
		}
	}
	return append(out, cvPath)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
