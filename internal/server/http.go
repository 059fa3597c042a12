// Package server provides the HTTP sidecar for health checks and metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pgnview/pgnview/internal/health"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/metrics"
)

// HTTPServer serves /health, /ready and /metrics alongside the MCP
// transport. The MCP protocol itself runs over stdio; this server is
// the operational surface.
type HTTPServer struct {
	server *http.Server
	logger logging.ContextLogger
}

// NewHTTPServer creates the health and metrics server.
func NewHTTPServer(addr string, logger logging.ContextLogger, checker *health.Checker) *HTTPServer {
	prom := metrics.NewPrometheusCollector()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.LivenessHandler())
	mux.HandleFunc("/ready", checker.ReadinessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	handler := PrometheusMiddleware(prom)(mux)

	return &HTTPServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in a background goroutine.
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP health check server", "addr", s.server.Addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP health check server")
	return s.server.Shutdown(ctx)
}
