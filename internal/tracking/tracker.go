// Package tracking records experiment runs: parameters, metrics and file
// artifacts, in a relational store with artifacts copied under a local root
// and optionally mirrored to GCS.
package tracking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/dbctx"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/gcp"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

type Options struct {
	Experiment   string
	ArtifactRoot string
	// Store and Bucket enable the GCS mirror; both must be set.
	Store  gcp.ObjectStore
	Bucket string
	Prefix string
	Now    func() time.Time
}

type Tracker struct {
	repo RunRepo
	log  *logger.Logger
	opts Options
}

func New(db *gorm.DB, log *logger.Logger, opts Options) (*Tracker, error) {
	if db == nil {
		return nil, fmt.Errorf("tracking: nil db")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Experiment == "" {
		return nil, fmt.Errorf("tracking: experiment name required")
	}
	if opts.ArtifactRoot == "" {
		return nil, fmt.Errorf("tracking: artifact root required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		repo: NewRunRepo(db, log),
		log:  log.With("component", "Tracker", "experiment", opts.Experiment),
		opts: opts,
	}, nil
}

func (t *Tracker) Repo() RunRepo { return t.repo }

// ActiveRun is a run opened by StartRun. It must be closed with End.
type ActiveRun struct {
	t     *Tracker
	run   *Run
	log   *logger.Logger
	ended bool
}

func (t *Tracker) StartRun(ctx context.Context, name string, tags map[string]string) (*ActiveRun, error) {
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("tracking: encode tags: %w", err)
	}
	run := &Run{
		ID:         uuid.New(),
		Experiment: t.opts.Experiment,
		Name:       name,
		Status:     StatusRunning,
		Tags:       datatypes.JSON(raw),
		StartedAt:  t.opts.Now().UTC(),
	}
	if err := t.repo.Create(dbctx.Context{Ctx: ctx}, run); err != nil {
		return nil, fmt.Errorf("tracking: create run: %w", err)
	}
	l := t.log.With("run_id", run.ID.String())
	l.Info("tracking: run started", "name", name)
	return &ActiveRun{t: t, run: run, log: l}, nil
}

func (r *ActiveRun) ID() uuid.UUID { return r.run.ID }

// ArtifactDir is where artifacts of group are copied for this run.
func (r *ActiveRun) ArtifactDir(group string) string {
	return filepath.Join(r.t.opts.ArtifactRoot, r.run.ID.String(), "artifacts", filepath.FromSlash(group))
}

// LogParams stores values in their string form; repeated keys overwrite.
func (r *ActiveRun) LogParams(ctx context.Context, params map[string]any) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]*Param, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, &Param{RunID: r.run.ID, Key: k, Value: fmt.Sprint(params[k])})
	}
	if err := r.t.repo.UpsertParams(dbctx.Context{Ctx: ctx}, rows); err != nil {
		return fmt.Errorf("tracking: log params: %w", err)
	}
	r.log.Debug("tracking: params logged", "count", len(rows))
	return nil
}

func (r *ActiveRun) LogMetrics(ctx context.Context, metrics map[string]float64) error {
	return r.LogMetricsAt(ctx, 0, metrics)
}

func (r *ActiveRun) LogMetricsAt(ctx context.Context, step int, metrics map[string]float64) error {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	now := r.t.opts.Now().UTC()
	rows := make([]*Metric, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, &Metric{RunID: r.run.ID, Key: k, Value: metrics[k], Step: step, Timestamp: now})
	}
	if err := r.t.repo.AddMetrics(dbctx.Context{Ctx: ctx}, rows); err != nil {
		return fmt.Errorf("tracking: log metrics: %w", err)
	}
	r.log.Debug("tracking: metrics logged", "count", len(rows), "step", step)
	return nil
}

// LogArtifact copies the file at src under the run's artifact directory for
// group, records its size and digest, and mirrors it to GCS when enabled.
func (r *ActiveRun) LogArtifact(ctx context.Context, src, group string) (*Artifact, error) {
	name := filepath.Base(src)
	dst := filepath.Join(r.ArtifactDir(group), name)
	size, sum, err := copyFile(src, dst)
	if err != nil {
		return nil, fmt.Errorf("tracking: log artifact %s: %w", src, err)
	}
	a := &Artifact{
		RunID:     r.run.ID,
		Group:     group,
		Name:      name,
		LocalPath: dst,
		SizeBytes: size,
		SHA256:    sum,
		CreatedAt: r.t.opts.Now().UTC(),
	}
	if o := r.t.opts; o.Store != nil && o.Bucket != "" {
		object := path.Join(o.Prefix, r.run.ID.String(), group, name)
		if err := o.Store.UploadFile(ctx, o.Bucket, object, dst); err != nil {
			return nil, fmt.Errorf("tracking: mirror artifact %s: %w", name, err)
		}
		a.URI = gcp.URI(o.Bucket, object)
	}
	if err := r.t.repo.AddArtifact(dbctx.Context{Ctx: ctx}, a); err != nil {
		return nil, fmt.Errorf("tracking: record artifact: %w", err)
	}
	r.log.Info("tracking: artifact logged", "group", group, "name", name, "bytes", size)
	return a, nil
}

// End closes the run, FAILED when cause is non-nil. Later calls are no-ops.
func (r *ActiveRun) End(ctx context.Context, cause error) error {
	if r.ended {
		return nil
	}
	r.ended = true
	status, msg := StatusFinished, ""
	if cause != nil {
		status, msg = StatusFailed, cause.Error()
	}
	if err := r.t.repo.Finish(dbctx.Context{Ctx: ctx}, r.run.ID, status, msg, r.t.opts.Now().UTC()); err != nil {
		return fmt.Errorf("tracking: end run: %w", err)
	}
	r.log.Info("tracking: run ended", "status", status)
	return nil
}

// WithRun opens a run, calls fn, and closes the run with fn's outcome.
func WithRun(ctx context.Context, t *Tracker, name string, tags map[string]string, fn func(*ActiveRun) error) error {
	run, err := t.StartRun(ctx, name, tags)
	if err != nil {
		return err
	}
	ferr := fn(run)
	if err := run.End(context.WithoutCancel(ctx), ferr); err != nil {
		if ferr != nil {
			return ferr
		}
		return err
	}
	return ferr
}

func copyFile(src, dst string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, "", err
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, "", err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
