package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusOnce     sync.Once
	prometheusInstance *PrometheusCollector
)

// PrometheusCollector exposes pgnview metrics to Prometheus.
type PrometheusCollector struct {
	// Tool metrics
	toolCallsTotal   *prometheus.CounterVec
	toolDurationSecs *prometheus.HistogramVec

	// Engine metrics
	engineStatus        prometheus.Gauge
	engineRestartsTotal prometheus.Counter
	engineHealthChecks  *prometheus.CounterVec
	searchDurationSecs  prometheus.Histogram

	// Analysis metrics
	positionsEvaluatedTotal prometheus.Counter
	analysisRunsTotal       *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Cache metrics
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
}

// NewPrometheusCollector creates the Prometheus metrics collector (singleton,
// since promauto registers globally).
func NewPrometheusCollector() *PrometheusCollector {
	prometheusOnce.Do(func() {
		prometheusInstance = &PrometheusCollector{
			toolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pgnview_tool_calls_total",
					Help: "Total number of MCP tool calls",
				},
				[]string{"tool", "status"},
			),
			toolDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "pgnview_tool_duration_seconds",
					Help:    "Duration of MCP tool calls in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			engineStatus: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "pgnview_engine_status",
					Help: "Status of the UCI engine (1=running, 0=stopped)",
				},
			),
			engineRestartsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pgnview_engine_restarts_total",
					Help: "Total number of UCI engine restarts",
				},
			),
			engineHealthChecks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pgnview_engine_health_checks_total",
					Help: "Total number of UCI engine health checks",
				},
				[]string{"status"},
			),
			searchDurationSecs: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "pgnview_engine_search_duration_seconds",
					Help:    "Duration of single-position engine searches in seconds",
					Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
			),
			positionsEvaluatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pgnview_positions_evaluated_total",
					Help: "Total number of positions evaluated",
				},
			),
			analysisRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pgnview_analysis_runs_total",
					Help: "Total number of game analysis runs",
				},
				[]string{"status"},
			),
			httpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pgnview_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			httpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "pgnview_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
			cacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pgnview_eval_cache_hits_total",
					Help: "Total number of evaluation cache hits",
				},
			),
			cacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pgnview_eval_cache_misses_total",
					Help: "Total number of evaluation cache misses",
				},
			),
		}
	})
	return prometheusInstance
}

// RecordToolCall records a tool call metric.
func (p *PrometheusCollector) RecordToolCall(tool, status string, durationSecs float64) {
	p.toolCallsTotal.WithLabelValues(tool, status).Inc()
	p.toolDurationSecs.WithLabelValues(tool).Observe(durationSecs)
}

// RecordEngineStatus records the current engine status.
func (p *PrometheusCollector) RecordEngineStatus(running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	p.engineStatus.Set(value)
}

// RecordEngineRestart records an engine restart.
func (p *PrometheusCollector) RecordEngineRestart() {
	p.engineRestartsTotal.Inc()
}

// RecordEngineHealthCheck records a health check result.
func (p *PrometheusCollector) RecordEngineHealthCheck(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.engineHealthChecks.WithLabelValues(status).Inc()
}

// RecordSearch records a single-position search duration.
func (p *PrometheusCollector) RecordSearch(durationSecs float64) {
	p.searchDurationSecs.Observe(durationSecs)
	p.positionsEvaluatedTotal.Inc()
}

// RecordAnalysisRun records a completed or failed analysis run.
func (p *PrometheusCollector) RecordAnalysisRun(failed bool) {
	status := "success"
	if failed {
		status = "failure"
	}
	p.analysisRunsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, durationSecs float64) {
	p.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(durationSecs)
}

// RecordCacheHit records an evaluation cache hit.
func (p *PrometheusCollector) RecordCacheHit() {
	p.cacheHitsTotal.Inc()
}

// RecordCacheMiss records an evaluation cache miss.
func (p *PrometheusCollector) RecordCacheMiss() {
	p.cacheMissesTotal.Inc()
}
