package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/observability"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/serving/httpapi"
	"github.com/yungbote/hotel-reservation-prediction/internal/serving/predictor"
)

const serviceName = "hrp-server"

type App struct {
	Log    *logger.Logger
	Config *config.Config

	predictor *predictor.Predictor
	server    *http.Server
	otelStop  func(context.Context) error
}

// New loads the model and builds the HTTP server. A missing or unusable
// model is an error here, before anything listens.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if log == nil {
		return nil, errors.New("logger required")
	}
	otelStop := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Logging.Mode,
	})

	cache, err := predictor.NewRedisCache(ctx, log, cfg.Serving.RedisAddr, cfg.Serving.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("init prediction cache: %w", err)
	}
	pred, err := predictor.Load(cfg.Paths.ModelOutput, log, cache)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	pred.WithMetrics(metrics)

	if cfg.Logging.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Log:             log,
		Predictor:       pred,
		Metrics:         metrics,
		Gatherer:        reg,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.Serving.CORSOrigins,
		MaxRequestBytes: cfg.Serving.MaxRequestBytes,
	})

	return &App{
		Log:       log,
		Config:    cfg,
		predictor: pred,
		otelStop:  otelStop,
		server: &http.Server{
			Addr:              cfg.Serving.Addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.Serving.ReadHeaderTimeout,
		},
	}, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("server listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Serving.ShutdownTimeout)
		defer cancel()
		a.Log.Info("server shutting down")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) close() {
	if err := a.predictor.Close(); err != nil {
		a.Log.Warn("prediction cache close failed", "error", err)
	}
	if err := a.otelStop(context.Background()); err != nil {
		a.Log.Warn("otel shutdown failed", "error", err)
	}
}
