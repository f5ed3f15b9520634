package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	jobrt "github.com/yungbote/hotel-reservation-prediction/internal/jobs/runtime"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/gcp"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/serving/predictor"
	"github.com/yungbote/hotel-reservation-prediction/internal/testutil"
)

const smallSearchSpace = `pipeline: model_training
version: 1
search: {n_iter: 2, cv: 2, n_jobs: 2, random_state: 42, scoring: accuracy}
params:
  - {name: n_estimators, kind: randint, low: 20, high: 40}
  - {name: max_depth, kind: randint, low: 3, high: 6}
  - {name: learning_rate, kind: uniform, loc: 0.05, scale: 0.1}
  - {name: num_leaves, kind: randint, low: 8, high: 16}
  - {name: boosting_type, kind: choice, values: [gbdt, goss]}
`

// pipelineEnv points every artifact of the shipped config at dir and serves
// the raw CSV from an in-memory bucket.
func pipelineEnv(t *testing.T, dir string, seed int64) *testutil.MemoryObjects {
	t.Helper()
	cfg, err := config.Load("../../config/config.yaml")
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	store := testutil.NewMemoryObjects()
	store.Put(cfg.DataIngestion.BucketName, cfg.DataIngestion.BucketFileName,
		testutil.BookingsCSV(testutil.BookingOptions{Rows: 1000, Seed: seed, IndexColumn: true}))

	prev := newObjectStore
	newObjectStore = func(context.Context, *logger.Logger, gcp.ObjectStorageConfig) (gcp.ObjectStore, error) {
		return store, nil
	}
	t.Cleanup(func() { newObjectStore = prev })

	spacePath := filepath.Join(dir, "search_space.yaml")
	if err := os.WriteFile(spacePath, []byte(smallSearchSpace), 0o644); err != nil {
		t.Fatalf("write search space: %v", err)
	}
	t.Setenv("HRP_SEARCH_SPACE_YAML", spacePath)
	t.Setenv("LOG_MODE", "production")
	for key, rel := range map[string]string{
		"HRP_PATHS__RAW_FILE":         "raw/raw.csv",
		"HRP_PATHS__TRAIN_FILE":       "raw/train.csv",
		"HRP_PATHS__TEST_FILE":        "raw/test.csv",
		"HRP_PATHS__PROCESSED_TRAIN":  "processed/train.csv",
		"HRP_PATHS__PROCESSED_TEST":   "processed/test.csv",
		"HRP_PATHS__REPORTS_DIR":      "reports",
		"HRP_PATHS__MODEL_OUTPUT":     "models/model.json",
		"HRP_PATHS__LOGS_DIR":         "logs",
		"HRP_PATHS__METRICS_FILE":     "metrics/pipeline.prom",
		"HRP_TRACKING__DSN":           "mlruns/tracking.db",
		"HRP_TRACKING__ARTIFACT_ROOT": "mlruns",
	} {
		t.Setenv(key, filepath.Join(dir, rel))
	}
	return store
}

func TestRunStagesModelIsServable(t *testing.T) {
	example := predictor.Features{
		LeadTime:           50,
		NoOfSpecialRequest: 1,
		AvgPricePerRoom:    120.5,
		ArrivalMonth:       6,
		ArrivalDate:        15,
		MarketSegmentType:  0,
		NoOfWeekNights:     2,
		NoOfWeekendNights:  1,
		TypeOfMealPlan:     0,
		RoomTypeReserved:   0,
	}
	for _, seed := range []int64{1, 2, 3} {
		dir := t.TempDir()
		pipelineEnv(t, dir, seed)
		err := runStages(context.Background(), "../../config/config.yaml", stageOrder...)
		if err != nil {
			t.Fatalf("seed %d: runStages: %v", seed, err)
		}
		pred, err := predictor.Load(filepath.Join(dir, "models/model.json"), logger.NewNop(), nil)
		if err != nil {
			t.Fatalf("seed %d: trained model not servable: %v", seed, err)
		}
		label, err := pred.Predict(context.Background(), example)
		if err != nil {
			t.Fatalf("seed %d: Predict: %v", seed, err)
		}
		if label != 0 && label != 1 {
			t.Fatalf("seed %d: label: want 0 or 1 got=%d", seed, label)
		}
		if _, err := os.Stat(filepath.Join(dir, "metrics/pipeline.prom")); err != nil {
			t.Fatalf("seed %d: metrics textfile missing: %v", seed, err)
		}
		_ = pred.Close()
	}
}

func TestRunStagesMissingObjectFails(t *testing.T) {
	dir := t.TempDir()
	store := pipelineEnv(t, dir, 1)
	store.Objects = map[string][]byte{}
	err := runStages(context.Background(), "../../config/config.yaml", stageOrder[0])
	if !errors.Is(err, gcp.ErrObjectNotFound) {
		t.Fatalf("want ErrObjectNotFound, got %v", err)
	}
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func TestRegisterFailureReleasesResources(t *testing.T) {
	var cc closeCounter
	w := &wiring{registry: jobrt.NewRegistry(), log: logger.NewNop(), closers: []func() error{cc.Close}}
	h := stubStage("dup")
	if err := w.register(h); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if cc.n != 0 {
		t.Fatalf("closed too early: %d", cc.n)
	}
	if err := w.register(h); err == nil {
		t.Fatalf("duplicate register: expected error")
	}
	if cc.n != 1 {
		t.Fatalf("closers: want=1 got=%d", cc.n)
	}
}

type stubStage string

func (s stubStage) Type() string { return string(s) }

func (s stubStage) Run(jc *jobrt.Context) error {
	jc.Succeed("done", nil)
	return nil
}
