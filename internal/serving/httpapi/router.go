package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	Predictor       Predictor
	Metrics         *observability.Metrics
	Gatherer        prometheus.Gatherer
	ServiceName     string
	CORSOrigins     []string
	MaxRequestBytes int64
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "hrp-server"
	}

	r := gin.New()
	r.SetHTMLTemplate(parseTemplates())
	r.Use(recoverer(log))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(attachTraceContext())
	r.Use(requestLogger(log))
	r.Use(instrument(cfg.Metrics))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsFor(cfg.CORSOrigins))
	}

	h := NewHandler(log, cfg.Predictor)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	body := limitBody(cfg.MaxRequestBytes)
	r.GET("/", h.IndexPage)
	r.POST("/", body, h.SubmitForm)
	r.POST("/api/predict", body, h.PredictJSON)
	return r
}
