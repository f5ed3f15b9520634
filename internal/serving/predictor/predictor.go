// Package predictor loads the trained classifier once and turns form input
// into single-row predictions.
package predictor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/hotel-reservation-prediction/internal/ml/gbm"
	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

// Predictor is immutable after Load and safe for concurrent use.
type Predictor struct {
	log     *logger.Logger
	model   *gbm.Classifier
	digest  string
	cache   Cache
	metrics *observability.Metrics
}

// Load reads the model at path. It fails when the file is missing, is not a
// model, or needs a column the form does not provide. cache may be nil.
func Load(path string, log *logger.Logger, cache Cache) (*Predictor, error) {
	if log == nil {
		log = logger.NewNop()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	model, err := gbm.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if len(model.Features) == 0 {
		return nil, fmt.Errorf("model %s records no feature names", path)
	}
	known := map[string]bool{}
	for _, col := range fieldColumns {
		known[col] = true
	}
	for _, col := range model.Features {
		if !known[col] {
			return nil, fmt.Errorf("model feature %q has no form field", col)
		}
	}
	sum := sha256.Sum256(raw)
	p := &Predictor{
		log:    log.With("component", "Predictor"),
		model:  model,
		digest: hex.EncodeToString(sum[:]),
		cache:  cache,
	}
	p.log.Info("model loaded",
		"path", path,
		"digest", p.digest[:12],
		"features", model.Features,
		"trees", len(model.Trees),
		"boosting_type", model.Params.BoostingType,
	)
	return p, nil
}

// WithMetrics attaches serving metrics and publishes the model info gauge.
func (p *Predictor) WithMetrics(m *observability.Metrics) *Predictor {
	p.metrics = m
	m.SetModelInfo(p.digest[:12], p.model.Params.BoostingType, p.model.NumFeatures())
	return p
}

func (p *Predictor) Digest() string { return p.digest }

// Features returns the column order the model was trained on.
func (p *Predictor) Features() []string {
	return append([]string(nil), p.model.Features...)
}

// Vector lays f out in training column order.
func (p *Predictor) Vector(f Features) []float64 {
	cols := f.columns()
	x := make([]float64, len(p.model.Features))
	for i, name := range p.model.Features {
		x[i] = cols[name]
	}
	return x
}

// Predict returns 0 or 1 for one booking.
func (p *Predictor) Predict(ctx context.Context, f Features) (int, error) {
	if err := f.Validate(); err != nil {
		p.metrics.PredictionError("invalid_input")
		return 0, err
	}
	ctx, span := observability.StartSpan(ctx, "predictor.Predict",
		attribute.String("model.digest", p.digest[:12]),
	)
	start := time.Now()
	x := p.Vector(f)
	key := p.cacheKey(x)

	if p.cache != nil {
		label, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			p.log.Warn("prediction cache get failed", "error", err)
		}
		p.metrics.CacheLookup(ok)
		if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			p.metrics.ObservePrediction(strconv.Itoa(label), time.Since(start))
			observability.EndSpan(span, nil)
			return label, nil
		}
	}

	label := p.model.PredictOne(x)
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, label); err != nil {
			p.log.Warn("prediction cache set failed", "error", err)
		}
	}
	p.metrics.ObservePrediction(strconv.Itoa(label), time.Since(start))
	observability.EndSpan(span, nil)
	return label, nil
}

// cacheKey ties a vector to the exact model bytes.
func (p *Predictor) cacheKey(x []float64) string {
	var b strings.Builder
	b.WriteString(p.digest[:16])
	for _, v := range x {
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// Close releases the cache connection.
func (p *Predictor) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}
