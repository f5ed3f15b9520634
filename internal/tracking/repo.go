package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/dbctx"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

type RunRepo interface {
	Create(dbc dbctx.Context, run *Run) error
	ListByExperiment(dbc dbctx.Context, experiment string, limit int) ([]*Run, error)
	Finish(dbc dbctx.Context, id uuid.UUID, status, errMsg string, endedAt time.Time) error
	UpsertParams(dbc dbctx.Context, params []*Param) error
	AddMetrics(dbc dbctx.Context, metrics []*Metric) error
	AddArtifact(dbc dbctx.Context, a *Artifact) error
	Params(dbc dbctx.Context, runID uuid.UUID) ([]*Param, error)
	Metrics(dbc dbctx.Context, runID uuid.UUID) ([]*Metric, error)
	Artifacts(dbc dbctx.Context, runID uuid.UUID) ([]*Artifact, error)
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{
		db:  db,
		log: baseLog.With("repo", "RunRepo"),
	}
}

func (r *runRepo) Create(dbc dbctx.Context, run *Run) error {
	return dbc.DB(r.db).Create(run).Error
}

func (r *runRepo) ListByExperiment(dbc dbctx.Context, experiment string, limit int) ([]*Run, error) {
	var out []*Run
	q := dbc.DB(r.db).Where("experiment = ?", experiment).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runRepo) Finish(dbc dbctx.Context, id uuid.UUID, status, errMsg string, endedAt time.Time) error {
	return dbc.DB(r.db).Model(&Run{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   status,
			"error":    errMsg,
			"ended_at": endedAt,
		}).Error
}

// UpsertParams overwrites values of keys already logged for the run.
func (r *runRepo) UpsertParams(dbc dbctx.Context, params []*Param) error {
	if len(params) == 0 {
		return nil
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&params).Error
}

func (r *runRepo) AddMetrics(dbc dbctx.Context, metrics []*Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&metrics).Error
}

func (r *runRepo) AddArtifact(dbc dbctx.Context, a *Artifact) error {
	return dbc.DB(r.db).Create(a).Error
}

func (r *runRepo) Params(dbc dbctx.Context, runID uuid.UUID) ([]*Param, error) {
	var out []*Param
	err := dbc.DB(r.db).Where("run_id = ?", runID).Order("key ASC").Find(&out).Error
	return out, err
}

func (r *runRepo) Metrics(dbc dbctx.Context, runID uuid.UUID) ([]*Metric, error) {
	var out []*Metric
	err := dbc.DB(r.db).Where("run_id = ?", runID).Order("key ASC, step ASC").Find(&out).Error
	return out, err
}

func (r *runRepo) Artifacts(dbc dbctx.Context, runID uuid.UUID) ([]*Artifact, error) {
	var out []*Artifact
	err := dbc.DB(r.db).Where("run_id = ?", runID).Order("id ASC").Find(&out).Error
	return out, err
}
