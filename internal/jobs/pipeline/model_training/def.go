package model_training

import (
	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/metrics"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/search"
	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/tracking"
)

const (
	StageName     = "model_training"
	CVResultsFile = "cv_results.csv"
)

type Pipeline struct {
	log      *logger.Logger
	paths    config.PathsConfig
	target   string
	tracker  *tracking.Tracker
	metrics  *observability.PipelineMetrics
	space    search.Space
	settings search.Settings
}

func New(
	baseLog *logger.Logger,
	paths config.PathsConfig,
	target string,
	tracker *tracking.Tracker,
	metrics *observability.PipelineMetrics,
) *Pipeline {
	log := baseLog.With("job", StageName)
	space, settings := loadSearchSpec(log)
	return &Pipeline{
		log:      log,
		paths:    paths,
		target:   target,
		tracker:  tracker,
		metrics:  metrics,
		space:    space,
		settings: settings,
	}
}

// WithSearch replaces the search space and settings.
func (p *Pipeline) WithSearch(space search.Space, settings search.Settings) *Pipeline {
	p.space = space
	p.settings = settings
	return p
}

func (p *Pipeline) Type() string { return StageName }

type Result struct {
	RunID      string         `json:"run_id"`
	ModelPath  string         `json:"model_path"`
	BestParams map[string]any `json:"best_params"`
	CVScore    float64        `json:"cv_score"`
	Scores     metrics.Scores `json:"scores"`
	Features   []string       `json:"features"`
}
