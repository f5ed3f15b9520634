package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the serving process collectors. Build one per registry.
type Metrics struct {
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	predictions   *prometheus.CounterVec
	predictErrors *prometheus.CounterVec
	predictTime   prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	modelInfo     *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrp_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrp_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "hrp_http_inflight_requests",
			Help: "In-flight HTTP requests",
		}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrp_predictions_total",
			Help: "Predictions served by predicted label",
		}, []string{"label"}),
		predictErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrp_prediction_errors_total",
			Help: "Rejected or failed prediction requests by reason",
		}, []string{"reason"}),
		predictTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrp_prediction_duration_seconds",
			Help:    "Model inference latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrp_prediction_cache_lookups_total",
			Help: "Prediction cache lookups by result",
		}, []string{"result"}),
		modelInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hrp_model_info",
			Help: "Loaded model metadata (value is always 1)",
		}, []string{"digest", "boosting_type", "features"}),
	}
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObservePrediction(label string, d time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(label).Inc()
	m.predictTime.Observe(d.Seconds())
}

func (m *Metrics) PredictionError(reason string) {
	if m != nil {
		m.predictErrors.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) SetModelInfo(digest, boostingType string, features int) {
	if m != nil {
		m.modelInfo.WithLabelValues(digest, boostingType, strconv.Itoa(features)).Set(1)
	}
}
