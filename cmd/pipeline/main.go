package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/jobs/pipeline/data_ingestion"
	"github.com/yungbote/hotel-reservation-prediction/internal/jobs/pipeline/data_processing"
	"github.com/yungbote/hotel-reservation-prediction/internal/jobs/pipeline/model_training"
	jobrt "github.com/yungbote/hotel-reservation-prediction/internal/jobs/runtime"
	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/ctxutil"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/envutil"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/gcp"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/shutdown"
	"github.com/yungbote/hotel-reservation-prediction/internal/tracking"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

var stageOrder = []string{data_ingestion.StageName, data_processing.StageName, model_training.StageName}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "hotel reservation cancellation training pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default $"+config.PathEnvVar+" or config/config.yaml)")

	stageCmd := func(use, short string, stages ...string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStages(cmd.Context(), configPath, stages...)
			},
		}
	}
	root.AddCommand(
		stageCmd("ingest", "download the raw dataset and split it into train/test", data_ingestion.StageName),
		stageCmd("preprocess", "clean, encode, rebalance and select features", data_processing.StageName),
		stageCmd("train", "tune, evaluate and persist the classifier", model_training.StageName),
		stageCmd("run", "ingest, preprocess and train in order", stageOrder...),
	)
	return root
}

func runStages(parent context.Context, configPath string, stages ...string) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return err
	}
	log, err := logger.NewWithOptions(envutil.String("LOG_MODE", cfg.Logging.Mode), logger.Options{Dir: cfg.Paths.LogsDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return err
	}
	defer log.Sync()

	ctx, stop := shutdown.NotifyContext(parent)
	defer stop()
	runID := uuid.NewString()
	ctx = ctxutil.WithTraceData(ctx, &ctxutil.TraceData{TraceID: runID, RequestID: runID})
	log = log.With("pipeline_run", runID)

	otelStop := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "hrp-pipeline",
		Environment: cfg.Logging.Mode,
	})
	defer func() {
		if err := otelStop(context.Background()); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	metrics := observability.NewPipelineMetrics()
	w, err := wire(ctx, cfg, log, metrics, stages)
	if err != nil {
		log.Error("pipeline setup failed", "error", err)
		return err
	}
	defer w.close()

	ran, err := w.registry.RunSequence(ctx, log, stages...)
	for _, jc := range ran {
		metrics.ObserveStage(jc.Stage, jc.FinishedAt.Sub(jc.StartedAt), jc.Err)
	}
	if cfg.Paths.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.Paths.MetricsFile); werr != nil {
			log.Warn("write metrics textfile failed", "path", cfg.Paths.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		if pe, ok := pipeerr.As(err); ok {
			log.Error("pipeline failed", "stage", pe.Stage, "step", pe.Step, "error", pe)
		} else {
			log.Error("unexpected pipeline error", "error", err)
		}
		return err
	}
	log.Info("pipeline completed", "stages", stages)
	return nil
}

// newObjectStore is swapped in tests for an in-memory bucket.
var newObjectStore = gcp.NewObjectStore

type wiring struct {
	registry *jobrt.Registry
	closers  []func() error
	log      *logger.Logger
}

func (w *wiring) close() {
	for _, c := range w.closers {
		if err := c(); err != nil {
			w.log.Warn("close failed", "error", err)
		}
	}
}

// register adds h, releasing everything opened so far when it cannot.
func (w *wiring) register(h jobrt.Handler) error {
	if err := w.registry.Register(h); err != nil {
		w.close()
		return err
	}
	return nil
}

func needs(stages []string, name string) bool {
	for _, s := range stages {
		if s == name {
			return true
		}
	}
	return false
}

// wire builds only the dependencies the requested stages use, so preprocess
// runs without GCS credentials or a tracker database.
func wire(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *observability.PipelineMetrics, stages []string) (*wiring, error) {
	w := &wiring{registry: jobrt.NewRegistry(), log: log}
	var store gcp.ObjectStore
	if needs(stages, data_ingestion.StageName) || (cfg.Tracking.ArtifactBucket != "" && needs(stages, model_training.StageName)) {
		storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.Storage.Mode, cfg.Storage.EmulatorHost)
		if err != nil {
			return nil, pipeerr.New("setup", pipeerr.StepConfig, "invalid storage config", err)
		}
		store, err = newObjectStore(ctx, log, storageCfg)
		if err != nil {
			return nil, pipeerr.New("setup", pipeerr.StepConfig, "failed to create object store", err)
		}
		w.closers = append(w.closers, store.Close)
	}

	if needs(stages, data_ingestion.StageName) {
		if err := w.register(data_ingestion.New(log, store, cfg.DataIngestion, cfg.Paths, metrics)); err != nil {
			return nil, err
		}
	}
	if needs(stages, data_processing.StageName) {
		if err := w.register(data_processing.New(log, cfg.DataProcessing, cfg.Paths, metrics)); err != nil {
			return nil, err
		}
	}
	if needs(stages, model_training.StageName) {
		db, err := tracking.Open(cfg.Tracking)
		if err != nil {
			w.close()
			return nil, pipeerr.New("setup", pipeerr.StepConfig, "failed to open tracking store", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			w.closers = append(w.closers, sqlDB.Close)
		}
		opts := tracking.Options{
			Experiment:   cfg.Tracking.Experiment,
			ArtifactRoot: cfg.Tracking.ArtifactRoot,
			Prefix:       cfg.Tracking.ArtifactPrefix,
		}
		if cfg.Tracking.ArtifactBucket != "" {
			opts.Store = store
			opts.Bucket = cfg.Tracking.ArtifactBucket
		}
		tr, err := tracking.New(db, log, opts)
		if err != nil {
			w.close()
			return nil, pipeerr.New("setup", pipeerr.StepConfig, "failed to create tracker", err)
		}
		mt := model_training.New(log, cfg.Paths, cfg.DataProcessing.TargetColumn, tr, metrics)
		if err := w.register(mt); err != nil {
			return nil, err
		}
	}
	return w, nil
}
