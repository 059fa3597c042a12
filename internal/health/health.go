package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/pgnview/pgnview/internal/logging"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// checkTimeout bounds each individual check so a hung engine pipe
// cannot stall the readiness endpoint.
const checkTimeout = 5 * time.Second

// Check probes a single component.
type Check func(ctx context.Context) error

// Component is the per-component entry in a health response.
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Response is the aggregate health check response.
type Response struct {
	Status     Status      `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
	Service    string      `json:"service,omitempty"`
	Version    string      `json:"version,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Checker runs registered health checks and serves liveness and
// readiness endpoints.
type Checker struct {
	logger  logging.ContextLogger
	service string
	version string

	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates a health checker.
func NewChecker(logger logging.ContextLogger, service, version string) *Checker {
	return &Checker{
		logger:  logger,
		service: service,
		version: version,
		checks:  make(map[string]Check),
	}
}

// RegisterCheck registers a named component check. Registering the same
// name again replaces the previous check.
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// CheckHealth runs all registered checks in parallel and aggregates the
// results. Any unhealthy component makes the overall status unhealthy.
func (c *Checker) CheckHealth(ctx context.Context) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Service:   c.service,
		Version:   c.version,
	}

	if len(c.checks) == 0 {
		return response
	}

	results := make(chan Component, len(c.checks))
	var wg sync.WaitGroup

	for name, check := range c.checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()

			component := Component{
				Name:        name,
				Status:      StatusHealthy,
				LastChecked: time.Now().UTC(),
			}

			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			if err := check(checkCtx); err != nil {
				component.Status = StatusUnhealthy
				component.Message = err.Error()
				c.logger.WithField("component", name).Error("Health check failed", "error", err)
			}

			results <- component
		}(name, check)
	}

	wg.Wait()
	close(results)

	for component := range results {
		response.Components = append(response.Components, component)
		if component.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		}
	}

	// Stable ordering for clients and tests.
	sort.Slice(response.Components, func(i, j int) bool {
		return response.Components[i].Name < response.Components[j].Name
	})

	return response
}

// LivenessHandler answers liveness probes. If the process can serve the
// request it is alive, regardless of engine state.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := Response{
			Status:    StatusHealthy,
			Timestamp: time.Now().UTC(),
			Service:   c.service,
			Version:   c.version,
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			c.logger.Error("Failed to encode liveness response", "error", err)
		}
	}
}

// ReadinessHandler answers readiness probes by running all registered
// checks. Returns 503 when any component is unhealthy.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithCorrelationID(r.Context(), logging.GenerateCorrelationID())
		logger := c.logger.WithContext(ctx)

		logger.Debug("Performing readiness check")

		response := c.CheckHealth(ctx)

		w.Header().Set("Content-Type", "application/json")

		statusCode := http.StatusOK
		if response.Status != StatusHealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("Failed to encode readiness response", "error", err)
		}
	}
}
