package data_ingestion

import (
	"context"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

const StageName = "data_ingestion"

// Downloader fetches one object to a local path and can list its neighbours
// when it is missing.
type Downloader interface {
	DownloadToFile(ctx context.Context, bucket, object, dst string) (int64, error)
	Exists(ctx context.Context, bucket, object string) (bool, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

type Pipeline struct {
	log     *logger.Logger
	store   Downloader
	cfg     config.DataIngestionConfig
	paths   config.PathsConfig
	metrics *observability.PipelineMetrics
}

func New(
	baseLog *logger.Logger,
	store Downloader,
	cfg config.DataIngestionConfig,
	paths config.PathsConfig,
	metrics *observability.PipelineMetrics,
) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", StageName),
		store:   store,
		cfg:     cfg,
		paths:   paths,
		metrics: metrics,
	}
}

func (p *Pipeline) Type() string { return StageName }

type Result struct {
	RawBytes  int64  `json:"raw_bytes"`
	RawRows   int    `json:"raw_rows"`
	TrainRows int    `json:"train_rows"`
	TestRows  int    `json:"test_rows"`
	RawFile   string `json:"raw_file"`
}
