package runtime

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

type Handler interface {
	Type() string
	Run(ctx *Context) error
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler")
	}
	t := h.Type()
	if t == "" {
		return fmt.Errorf("handler Type() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		return fmt.Errorf("handler already registered for stage=%s", t)
	}
	r.handlers[t] = h
	return nil
}

func (r *Registry) Get(stage string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[stage]
	return h, ok
}

// RunSequence runs the named stages in order and stops at the first failure.
// It returns the contexts of the stages that ran.
func (r *Registry) RunSequence(ctx context.Context, log *logger.Logger, stages ...string) ([]*Context, error) {
	for _, s := range stages {
		if _, ok := r.Get(s); !ok {
			return nil, fmt.Errorf("no handler registered for stage=%s", s)
		}
	}
	var ran []*Context
	for _, s := range stages {
		h, _ := r.Get(s)
		sctx, span := observability.StartSpan(ctx, "stage."+s, attribute.String("stage", s))
		jc := NewContext(sctx, log, s)
		jc.Log.Info("stage starting")
		err := h.Run(jc)
		if err == nil && jc.Status == StatusFailed {
			err = jc.Err
		}
		if err == nil && jc.Status == StatusRunning {
			jc.Succeed(jc.Step, nil)
		}
		observability.EndSpan(span, err)
		ran = append(ran, jc)
		if err != nil {
			return ran, err
		}
	}
	return ran, nil
}
