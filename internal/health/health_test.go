package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnview/pgnview/internal/logging"
)

func newTestChecker() *Checker {
	return NewChecker(logging.NewLogger("[test] ", "error"), "pgnview", "0.1.0")
}

func TestCheckHealth_NoChecks(t *testing.T) {
	c := newTestChecker()

	resp := c.CheckHealth(context.Background())

	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "pgnview", resp.Service)
	assert.Empty(t, resp.Components)
}

func TestCheckHealth_AllHealthy(t *testing.T) {
	c := newTestChecker()
	c.RegisterCheck("engine", func(ctx context.Context) error { return nil })
	c.RegisterCheck("cache", func(ctx context.Context) error { return nil })

	resp := c.CheckHealth(context.Background())

	assert.Equal(t, StatusHealthy, resp.Status)
	require.Len(t, resp.Components, 2)
	// Components are sorted by name
	assert.Equal(t, "cache", resp.Components[0].Name)
	assert.Equal(t, "engine", resp.Components[1].Name)
}

func TestCheckHealth_UnhealthyComponent(t *testing.T) {
	c := newTestChecker()
	c.RegisterCheck("engine", func(ctx context.Context) error {
		return errors.New("engine process not running")
	})
	c.RegisterCheck("cache", func(ctx context.Context) error { return nil })

	resp := c.CheckHealth(context.Background())

	assert.Equal(t, StatusUnhealthy, resp.Status)
	require.Len(t, resp.Components, 2)
	assert.Equal(t, StatusUnhealthy, resp.Components[1].Status)
	assert.Contains(t, resp.Components[1].Message, "not running")
}

func TestCheckHealth_ReplacesCheck(t *testing.T) {
	c := newTestChecker()
	c.RegisterCheck("engine", func(ctx context.Context) error { return errors.New("down") })
	c.RegisterCheck("engine", func(ctx context.Context) error { return nil })

	resp := c.CheckHealth(context.Background())

	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Len(t, resp.Components, 1)
}

func TestLivenessHandler(t *testing.T) {
	c := newTestChecker()
	// Liveness ignores registered checks entirely
	c.RegisterCheck("engine", func(ctx context.Context) error { return errors.New("down") })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "0.1.0", resp.Version)
}

func TestReadinessHandler_Unhealthy(t *testing.T) {
	c := newTestChecker()
	c.RegisterCheck("engine", func(ctx context.Context) error { return errors.New("down") })

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestReadinessHandler_Healthy(t *testing.T) {
	c := newTestChecker()
	c.RegisterCheck("engine", func(ctx context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
