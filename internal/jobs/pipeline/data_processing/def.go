package data_processing

import (
	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

const StageName = "data_processing"

// Report file names written under paths.reports_dir.
const (
	FeatureImportanceCSV = "feature_importance.csv"
	FeatureImportancePNG = "feature_importance.png"
	LabelMappingsJSON    = "label_mappings.json"
	SkewnessCSV          = "skewness.csv"
)

type Pipeline struct {
	log     *logger.Logger
	cfg     config.DataProcessingConfig
	paths   config.PathsConfig
	metrics *observability.PipelineMetrics
}

func New(
	baseLog *logger.Logger,
	cfg config.DataProcessingConfig,
	paths config.PathsConfig,
	metrics *observability.PipelineMetrics,
) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", StageName),
		cfg:     cfg,
		paths:   paths,
		metrics: metrics,
	}
}

func (p *Pipeline) Type() string { return StageName }

type Result struct {
	TrainRows          int               `json:"train_rows"`
	TestRows           int               `json:"test_rows"`
	DuplicatesDropped  map[string]int    `json:"duplicates_dropped"`
	SkewedColumns      []string          `json:"skewed_columns"`
	SyntheticTrainRows int               `json:"synthetic_train_rows"`
	SyntheticTestRows  int               `json:"synthetic_test_rows"`
	SelectedFeatures   []string          `json:"selected_features"`
	Reports            map[string]string `json:"reports"`
}
