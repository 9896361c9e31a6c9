package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-leiden/pkg/health"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/metrics"
)

// metricsServer exposes a registry on /metrics and health checks under
// /health for the lifetime of a run.
type metricsServer struct {
	server *http.Server
	logger logging.Logger
}

func newMetricsMux(registry *metrics.Registry, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	checker.Register(mux)
	return mux
}

func startMetricsServer(addr string, registry *metrics.Registry, checker *health.Checker, logger logging.Logger) *metricsServer {
	s := &metricsServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      newMetricsMux(registry, checker),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	go func() {
		logger.Info("metrics server starting", logging.String("addr", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", logging.Error(err))
		}
	}()
	return s
}

func (s *metricsServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server forced to shutdown", logging.Error(err))
	}
}
