package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

type Run struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Experiment string         `gorm:"column:experiment;not null;index" json:"experiment"`
	Name       string         `gorm:"column:name" json:"name"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	Tags       datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	EndedAt    *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

func (Run) TableName() string { return "tracking_run" }

func (r *Run) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Param struct {
	ID    uint      `gorm:"primaryKey" json:"-"`
	RunID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_param_run_key" json:"run_id"`
	Key   string    `gorm:"column:key;not null;uniqueIndex:idx_param_run_key" json:"key"`
	Value string    `gorm:"column:value" json:"value"`
}

func (Param) TableName() string { return "tracking_param" }

type Metric struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RunID     uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	Key       string    `gorm:"column:key;not null;index" json:"key"`
	Value     float64   `gorm:"column:value" json:"value"`
	Step      int       `gorm:"column:step;not null;default:0" json:"step"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (Metric) TableName() string { return "tracking_metric" }

type Artifact struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RunID     uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	Group     string    `gorm:"column:artifact_group;not null" json:"group"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	LocalPath string    `gorm:"column:local_path;not null" json:"local_path"`
	SizeBytes int64     `gorm:"column:size_bytes" json:"size_bytes"`
	SHA256    string    `gorm:"column:sha256" json:"sha256"`
	URI       string    `gorm:"column:uri" json:"uri,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Artifact) TableName() string { return "tracking_artifact" }

func allModels() []any {
	return []any{&Run{}, &Param{}, &Metric{}, &Artifact{}}
}
