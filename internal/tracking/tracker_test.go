package tracking

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/dbctx"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

type uploadRecorder struct {
	objects map[string]string
}

func (u *uploadRecorder) DownloadToFile(context.Context, string, string, string) (int64, error) {
	return 0, errors.New("not implemented")
}

func (u *uploadRecorder) UploadFile(_ context.Context, bucket, object, src string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	u.objects[bucket+"/"+object] = string(b)
	return nil
}

func (u *uploadRecorder) Exists(context.Context, string, string) (bool, error) { return false, nil }

func (u *uploadRecorder) ListObjects(context.Context, string, string) ([]string, error) {
	return nil, nil
}

func (u *uploadRecorder) Close() error { return nil }

func newTracker(t *testing.T, opts Options) (*Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(config.TrackingConfig{Driver: "sqlite", DSN: filepath.Join(dir, "db", "tracking.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	opts.Experiment = "test"
	opts.ArtifactRoot = filepath.Join(dir, "mlruns")
	tr, err := New(db, logger.NewNop(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr, dir
}

func TestWithRunRecordsEverything(t *testing.T) {
	ctx := context.Background()
	up := &uploadRecorder{objects: map[string]string{}}
	tr, dir := newTracker(t, Options{Store: up, Bucket: "runs", Prefix: "hrp"})
	src := filepath.Join(dir, "train.csv")
	if err := os.WriteFile(src, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var runID string
	err := WithRun(ctx, tr, "train", map[string]string{"stage": "model_training"}, func(r *ActiveRun) error {
		runID = r.ID().String()
		if _, err := r.LogArtifact(ctx, src, "datasets"); err != nil {
			return err
		}
		if err := r.LogParams(ctx, map[string]any{"num_leaves": 31, "boosting_type": "gbdt"}); err != nil {
			return err
		}
		if err := r.LogParams(ctx, map[string]any{"num_leaves": 40}); err != nil {
			return err
		}
		return r.LogMetrics(ctx, map[string]float64{"accuracy": 0.9, "f1": 0.8})
	})
	if err != nil {
		t.Fatalf("WithRun: %v", err)
	}

	runs, err := tr.Repo().ListByExperiment(dbctx.Context{Ctx: ctx}, "test", 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs: want 1 got=%d err=%v", len(runs), err)
	}
	run := runs[0]
	if run.Status != StatusFinished || run.EndedAt == nil || run.ID.String() != runID {
		t.Fatalf("run: got=%+v", run)
	}
	params, _ := tr.Repo().Params(dbctx.Context{Ctx: ctx}, run.ID)
	if len(params) != 2 || params[1].Key != "num_leaves" || params[1].Value != "40" {
		t.Fatalf("params: got=%+v", params)
	}
	metrics, _ := tr.Repo().Metrics(dbctx.Context{Ctx: ctx}, run.ID)
	if len(metrics) != 2 {
		t.Fatalf("metrics: want=2 got=%d", len(metrics))
	}
	arts, _ := tr.Repo().Artifacts(dbctx.Context{Ctx: ctx}, run.ID)
	if len(arts) != 1 {
		t.Fatalf("artifacts: want=1 got=%d", len(arts))
	}
	a := arts[0]
	if a.SizeBytes != 8 || len(a.SHA256) != 64 || a.URI != "gs://runs/hrp/"+runID+"/datasets/train.csv" {
		t.Fatalf("artifact: got=%+v", a)
	}
	if b, err := os.ReadFile(a.LocalPath); err != nil || string(b) != "a,b\n1,2\n" {
		t.Fatalf("artifact copy: %q err=%v", b, err)
	}
	if up.objects["runs/hrp/"+runID+"/datasets/train.csv"] == "" {
		t.Fatalf("artifact was not mirrored")
	}
}

func TestWithRunMarksFailure(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, Options{})
	boom := errors.New("boom")
	err := WithRun(ctx, tr, "train", nil, func(r *ActiveRun) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("WithRun: want=%v got=%v", boom, err)
	}
	runs, _ := tr.Repo().ListByExperiment(dbctx.Context{Ctx: ctx}, "test", 1)
	if len(runs) != 1 || runs[0].Status != StatusFailed || runs[0].Error != "boom" {
		t.Fatalf("run: got=%+v", runs)
	}
}

func TestLogArtifactMissingFile(t *testing.T) {
	ctx := context.Background()
	tr, dir := newTracker(t, Options{})
	run, err := tr.StartRun(ctx, "x", nil)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if _, err := run.LogArtifact(ctx, filepath.Join(dir, "nope.csv"), "datasets"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if err := run.End(ctx, nil); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := run.End(ctx, errors.New("late")); err != nil {
		t.Fatalf("second End must be a no-op: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.TrackingConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
