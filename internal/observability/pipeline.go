package observability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/ctxutil"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

// PipelineMetrics collects batch stage gauges for a node_exporter textfile.
// A nil *PipelineMetrics is a valid no-op.
type PipelineMetrics struct {
	reg           *prometheus.Registry
	stageDuration *prometheus.GaugeVec
	stageSuccess  *prometheus.GaugeVec
	stageLastRun  *prometheus.GaugeVec
	rows          *prometheus.GaugeVec
	dataQuality   *prometheus.CounterVec
	modelScores   *prometheus.GaugeVec
}

func NewPipelineMetrics() *PipelineMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &PipelineMetrics{
		reg: reg,
		stageDuration: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hrp_pipeline_stage_duration_seconds",
			Help: "Wall time of the last stage run",
		}, []string{"stage"}),
		stageSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hrp_pipeline_stage_success",
			Help: "1 when the last stage run succeeded, else 0",
		}, []string{"stage"}),
		stageLastRun: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hrp_pipeline_stage_last_run_timestamp_seconds",
			Help: "Unix time the last stage run finished",
		}, []string{"stage"}),
		rows: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hrp_pipeline_rows",
			Help: "Row counts by stage, partition and checkpoint",
		}, []string{"stage", "partition", "checkpoint"}),
		dataQuality: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrp_pipeline_data_quality_issues_total",
			Help: "Data quality issues by stage and issue",
		}, []string{"stage", "issue"}),
		modelScores: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hrp_model_test_score",
			Help: "Test-set score of the last trained model",
		}, []string{"metric"}),
	}
}

func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
	ok := 1.0
	if err != nil {
		ok = 0
	}
	m.stageSuccess.WithLabelValues(stage).Set(ok)
	m.stageLastRun.WithLabelValues(stage).SetToCurrentTime()
}

func (m *PipelineMetrics) SetRows(stage, partition, checkpoint string, n int) {
	if m != nil {
		m.rows.WithLabelValues(stage, partition, checkpoint).Set(float64(n))
	}
}

func (m *PipelineMetrics) SetModelScores(scores map[string]float64) {
	if m == nil {
		return
	}
	for k, v := range scores {
		m.modelScores.WithLabelValues(k).Set(v)
	}
}

// ReportDataQuality counts issues and logs them once per call. Zero counts
// are ignored.
func (m *PipelineMetrics) ReportDataQuality(ctx context.Context, log *logger.Logger, stage string, issues map[string]int) {
	keys := make([]string, 0, len(issues))
	for k, n := range issues {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)
	if m != nil {
		for _, k := range keys {
			m.dataQuality.WithLabelValues(stage, k).Add(float64(issues[k]))
		}
	}
	if log == nil {
		return
	}
	kv := append([]interface{}{"stage", stage, "issues", issues}, ctxutil.LogFields(ctx)...)
	log.Warn("data quality issue detected", kv...)
}

// WriteTextfile writes the current values in Prometheus text format.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("observability: create metrics dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
