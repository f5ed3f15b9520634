package model_training

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	jobrt "github.com/yungbote/hotel-reservation-prediction/internal/jobs/runtime"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/gbm"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/search"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/dbctx"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
	"github.com/yungbote/hotel-reservation-prediction/internal/testutil"
	"github.com/yungbote/hotel-reservation-prediction/internal/tracking"
)

var testFeatures = []string{"lead_time", "avg_price_per_room", "no_of_special_requests"}

// writeProcessed renders a learnable table: cancellations (label 0) rise with
// lead time and fall with special requests.
func writeProcessed(t *testing.T, path string, n int, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		lead := float64(rng.Intn(300))
		price := 50 + rng.Float64()*150
		req := float64(rng.Intn(4))
		X[i] = []float64{lead, price, req}
		if lead/300-req/4+rng.NormFloat64()*0.15 < 0.2 {
			y[i] = 1
		}
	}
	f, err := dataset.FromMatrix(testFeatures, X, "booking_status", y)
	if err != nil {
		t.Fatalf("FromMatrix: %v", err)
	}
	if err := f.WriteCSVFile(path); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}
}

func smallSearch() (search.Space, search.Settings) {
	space := search.Space{
		{Name: "n_estimators", Dist: search.IntUniform{Low: 20, High: 40}},
		{Name: "num_leaves", Dist: search.IntUniform{Low: 4, High: 16}},
		{Name: "learning_rate", Dist: search.Uniform{Loc: 0.05, Scale: 0.15}},
		{Name: "boosting_type", Dist: search.Choice{Values: []any{"gbdt", "goss"}}},
	}
	s := search.DefaultSettings()
	s.NIter = 3
	s.NJobs = 2
	return space, s
}

type fixture struct {
	p       *Pipeline
	paths   config.PathsConfig
	tracker *tracking.Tracker
	store   *testutil.MemoryObjects
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	paths := config.Default().Paths
	paths.ProcessedTrain = filepath.Join(dir, "processed", "train.csv")
	paths.ProcessedTest = filepath.Join(dir, "processed", "test.csv")
	paths.ReportsDir = filepath.Join(dir, "reports")
	paths.ModelOutput = filepath.Join(dir, "models", "model.json")
	writeProcessed(t, paths.ProcessedTrain, 400, 1)
	writeProcessed(t, paths.ProcessedTest, 150, 2)
	if err := os.MkdirAll(paths.ReportsDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(paths.ReportsDir, "label_mappings.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}

	db, err := tracking.Open(config.TrackingConfig{Driver: "sqlite", DSN: filepath.Join(dir, "tracking.db")})
	if err != nil {
		t.Fatalf("tracking.Open: %v", err)
	}
	store := testutil.NewMemoryObjects()
	tr, err := tracking.New(db, logger.NewNop(), tracking.Options{
		Experiment:   "test",
		ArtifactRoot: filepath.Join(dir, "mlruns"),
		Store:        store,
		Bucket:       "runs",
	})
	if err != nil {
		t.Fatalf("tracking.New: %v", err)
	}
	p := New(logger.NewNop(), paths, "booking_status", tr, nil)
	p.WithSearch(smallSearch())
	return fixture{p: p, paths: paths, tracker: tr, store: store}
}

func run(t *testing.T, p *Pipeline) (Result, error) {
	t.Helper()
	jc := jobrt.NewContext(context.Background(), nil, p.Type())
	if err := p.Run(jc); err != nil {
		return Result{}, err
	}
	return jc.Result.(Result), nil
}

func TestRunTrainsSavesAndTracks(t *testing.T) {
	fx := newFixture(t)
	res, err := run(t, fx.p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scores.Accuracy < 0.75 {
		t.Fatalf("accuracy too low: %+v", res.Scores)
	}

	model, err := gbm.LoadFile(fx.paths.ModelOutput)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(model.Features, testFeatures) {
		t.Fatalf("model features: want=%v got=%v", testFeatures, model.Features)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(fx.paths.ModelOutput), CVResultsFile)); err != nil {
		t.Fatalf("cv results missing: %v", err)
	}

	repo := fx.tracker.Repo()
	dctx := dbctx.Context{Ctx: context.Background()}
	runs, err := repo.ListByExperiment(dctx, "test", 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs: want 1 got=%d err=%v", len(runs), err)
	}
	if runs[0].Status != tracking.StatusFinished || runs[0].ID.String() != res.RunID {
		t.Fatalf("run: got=%+v", runs[0])
	}
	groups := map[string]int{}
	arts, _ := repo.Artifacts(dctx, runs[0].ID)
	for _, a := range arts {
		groups[a.Group]++
	}
	if groups[groupDatasets] != 2 || groups[groupModel] != 1 || groups[groupReports] != 2 {
		t.Fatalf("artifact groups: got=%v", groups)
	}
	metrics, _ := repo.Metrics(dctx, runs[0].ID)
	if len(metrics) != 4 {
		t.Fatalf("metrics: want 4 got=%d", len(metrics))
	}
	params, _ := repo.Params(dctx, runs[0].ID)
	found := false
	for _, p := range params {
		if p.Key == "boosting_type" {
			found = true
		}
	}
	if !found {
		t.Fatalf("boosting_type param not logged: %+v", params)
	}
	if len(fx.store.Objects) != len(arts) {
		t.Fatalf("mirrored objects: want=%d got=%d", len(arts), len(fx.store.Objects))
	}
}

func TestRunFailureMarksRunFailed(t *testing.T) {
	fx := newFixture(t)
	space, settings := smallSearch()
	settings.Scoring = "auc"
	fx.p.WithSearch(space, settings)
	_, err := run(t, fx.p)
	if step, _ := pipeerr.StepOf(err); step != pipeerr.StepTrain {
		t.Fatalf("want step=train got=%q err=%v", step, err)
	}
	if _, statErr := os.Stat(fx.paths.ModelOutput); !os.IsNotExist(statErr) {
		t.Fatalf("model must not be written on failure: %v", statErr)
	}
	runs, _ := fx.tracker.Repo().ListByExperiment(dbctx.Context{Ctx: context.Background()}, "test", 0)
	if len(runs) != 1 || runs[0].Status != tracking.StatusFailed {
		t.Fatalf("run status: got=%+v", runs)
	}
}

func TestRunMissingInput(t *testing.T) {
	fx := newFixture(t)
	fx.p.paths.ProcessedTest = filepath.Join(t.TempDir(), "missing.csv")
	_, err := run(t, fx.p)
	if step, _ := pipeerr.StepOf(err); step != pipeerr.StepLoad {
		t.Fatalf("want step=load got=%q err=%v", step, err)
	}
}

func TestEmbeddedSearchSpec(t *testing.T) {
	space, settings, err := parseSearchSpec()
	if err != nil {
		t.Fatalf("parseSearchSpec: %v", err)
	}
	if !reflect.DeepEqual(settings, search.DefaultSettings()) {
		t.Fatalf("settings: want=%+v got=%+v", search.DefaultSettings(), settings)
	}
	if len(space) != len(search.DefaultSpace()) {
		t.Fatalf("space: want %d params got=%d", len(search.DefaultSpace()), len(space))
	}
}

func TestSearchSpecEnvOverrideFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("pipeline: other\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(searchSpaceEnv, path)
	if _, _, err := parseSearchSpec(); err == nil {
		t.Fatalf("expected error for foreign pipeline")
	}
	space, settings := loadSearchSpec(logger.NewNop())
	if settings != search.DefaultSettings() || len(space) != len(search.DefaultSpace()) {
		t.Fatalf("fallback not applied: %+v", settings)
	}
}
