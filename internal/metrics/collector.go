package metrics

import (
	"sync"
	"time"
)

// Collector gathers in-process counters for tool calls and analysis runs.
type Collector struct {
	mu sync.RWMutex

	toolCalls     map[string]int64
	toolErrors    map[string]int64
	toolDurations map[string][]time.Duration

	positionsEvaluated int64
	analysisRuns       int64
	analysisFailures   int64

	rateLimitHits  int64
	rateLimitTotal int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		toolCalls:     make(map[string]int64),
		toolErrors:    make(map[string]int64),
		toolDurations: make(map[string][]time.Duration),
	}
}

// RecordToolCall records a tool call with its status and duration.
func (c *Collector) RecordToolCall(tool, status string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolCalls[tool]++
	if status == "error" {
		c.toolErrors[tool]++
	}
	if status == "rate_limited" {
		c.rateLimitHits++
	}
	c.rateLimitTotal++

	// Keep the last 100 durations per tool
	durations := append(c.toolDurations[tool], duration)
	if len(durations) > 100 {
		durations = durations[1:]
	}
	c.toolDurations[tool] = durations
}

// RecordAnalysisRun records a completed game analysis run.
func (c *Collector) RecordAnalysisRun(positions int, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.analysisRuns++
	c.positionsEvaluated += int64(positions)
	if failed {
		c.analysisFailures++
	}
}

// GetStats returns current metrics statistics.
func (c *Collector) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make(map[string]interface{})

	toolStats := make(map[string]interface{})
	for tool, calls := range c.toolCalls {
		errors := c.toolErrors[tool]
		errorRate := float64(0)
		if calls > 0 {
			errorRate = float64(errors) / float64(calls)
		}

		var total time.Duration
		durations := c.toolDurations[tool]
		for _, d := range durations {
			total += d
		}
		avg := time.Duration(0)
		if len(durations) > 0 {
			avg = total / time.Duration(len(durations))
		}

		toolStats[tool] = map[string]interface{}{
			"calls":           calls,
			"errors":          errors,
			"error_rate":      errorRate,
			"avg_duration_ms": avg.Milliseconds(),
		}
	}
	stats["tools"] = toolStats

	stats["analysis"] = map[string]interface{}{
		"runs":                c.analysisRuns,
		"failures":            c.analysisFailures,
		"positions_evaluated": c.positionsEvaluated,
	}

	rateLimitRate := float64(0)
	if c.rateLimitTotal > 0 {
		rateLimitRate = float64(c.rateLimitHits) / float64(c.rateLimitTotal)
	}
	stats["rate_limits"] = map[string]interface{}{
		"hits":  c.rateLimitHits,
		"total": c.rateLimitTotal,
		"rate":  rateLimitRate,
	}

	return stats
}

// Reset clears all metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolCalls = make(map[string]int64)
	c.toolErrors = make(map[string]int64)
	c.toolDurations = make(map[string][]time.Duration)
	c.positionsEvaluated = 0
	c.analysisRuns = 0
	c.analysisFailures = 0
	c.rateLimitHits = 0
	c.rateLimitTotal = 0
}
