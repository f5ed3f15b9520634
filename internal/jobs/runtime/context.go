package runtime

import (
	"context"
	"time"

	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
)

const (
	StatusRunning   = "running"
	StatusFailed    = "failed"
	StatusSucceeded = "succeeded"
)

/*
Context is the execution handle for a single stage run.
Handlers report progress and terminate only through Progress, Fail and
Succeed, so status, logging and tracing stay in one place.
*/
type Context struct {
	Ctx        context.Context
	Log        *logger.Logger
	Stage      string
	Status     string
	Step       string
	Percent    int
	Message    string
	Err        error
	Result     any
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewContext(ctx context.Context, log *logger.Logger, stage string) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Context{
		Ctx:       ctx,
		Log:       log.With("stage", stage),
		Stage:     stage,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
}

// Progress records a non-terminal step update.
func (c *Context) Progress(step string, pct int, msg string) {
	if c == nil {
		return
	}
	c.Step = step
	c.Percent = pct
	c.Message = msg
	c.Log.Info(msg, "step", step, "progress", pct)
}

/*
Fail marks the run failed at step and returns the failure as a pipeline
error so handlers can `return jc.Fail(...)`. An err that already carries a
pipeline failure is kept as is.
*/
func (c *Context) Fail(step string, msg string, err error) error {
	var perr error
	if pe, ok := pipeerr.As(err); ok {
		perr = pe
		step = pe.Step
	} else {
		perr = pipeerr.New(c.Stage, step, msg, err)
	}
	c.Status = StatusFailed
	c.Step = step
	c.Message = ""
	c.Err = perr
	c.FinishedAt = time.Now()
	c.Log.Error("stage failed", "step", step, "error", perr)
	return perr
}

// Succeed marks the run done and keeps result for the caller.
func (c *Context) Succeed(finalStep string, result any) {
	c.Status = StatusSucceeded
	c.Step = finalStep
	c.Percent = 100
	c.Message = ""
	c.Err = nil
	c.Result = result
	c.FinishedAt = time.Now()
	c.Log.Info("stage succeeded", "step", finalStep, "duration", c.FinishedAt.Sub(c.StartedAt).String())
}

// StepSpan opens a tracing span for one step of the stage.
func (c *Context) StepSpan(step string) (context.Context, func(error)) {
	ctx, span := observability.StartSpan(c.Ctx, c.Stage+"."+step)
	return ctx, func(err error) { observability.EndSpan(span, err) }
}
