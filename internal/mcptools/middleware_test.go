package mcptools

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/metrics"
	"github.com/pgnview/pgnview/internal/ratelimit"
)

func newTestMiddleware(rateLimiter *ratelimit.Limiter) (*Middleware, *metrics.Collector) {
	collector := metrics.NewCollector()
	logger := logging.NewLogger("[test] ", "error")
	return NewMiddleware(logger, collector, rateLimiter), collector
}

func strictLimiter(t *testing.T, burst int) *ratelimit.Limiter {
	t.Helper()
	limiter := ratelimit.NewLimiter(&config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstSize:      burst,
	}, logging.NewLogger("[test] ", "error"))
	require.NotNil(t, limiter)
	return limiter
}

func okHandler(calls *int) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		*calls++
		return mcp.NewToolResultText("ok"), nil
	}
}

func TestWrapTool_Success(t *testing.T) {
	m, collector := newTestMiddleware(nil)

	calls := 0
	wrapped := m.WrapTool("load_game", okHandler(&calls))

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, calls)

	tools := collector.GetStats()["tools"].(map[string]interface{})
	stats := tools["load_game"].(map[string]interface{})
	assert.Equal(t, int64(1), stats["calls"])
	assert.Equal(t, int64(0), stats["errors"])
}

func TestWrapTool_Error(t *testing.T) {
	m, collector := newTestMiddleware(nil)

	wrapped := m.WrapTool("load_game", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, fmt.Errorf("boom")
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	assert.Error(t, err)

	tools := collector.GetStats()["tools"].(map[string]interface{})
	stats := tools["load_game"].(map[string]interface{})
	assert.Equal(t, int64(1), stats["calls"])
	assert.Equal(t, int64(1), stats["errors"])
}

func TestWrapTool_RateLimited(t *testing.T) {
	m, _ := newTestMiddleware(strictLimiter(t, 1))

	calls := 0
	wrapped := m.WrapTool("analyze_game", okHandler(&calls))

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	_, err = wrapped(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errRateLimited)
	// The handler never ran for the rejected call
	assert.Equal(t, 1, calls)
}

func TestWrapToolWithRetry_RecoversFromTransientError(t *testing.T) {
	m, _ := newTestMiddleware(nil)

	attempts := 0
	wrapped := m.WrapToolWithRetry("analyze_game", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient failure")
		}
		return mcp.NewToolResultText("ok"), nil
	}, 2)

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, attempts)
}

func TestWrapToolWithRetry_ExhaustsRetries(t *testing.T) {
	m, _ := newTestMiddleware(nil)

	attempts := 0
	wrapped := m.WrapToolWithRetry("analyze_game", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attempts++
		return nil, fmt.Errorf("persistent failure")
	}, 2)

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts)
}

func TestWrapToolWithRetry_DoesNotRetryRateLimit(t *testing.T) {
	m, _ := newTestMiddleware(strictLimiter(t, 1))

	calls := 0
	wrapped := m.WrapToolWithRetry("analyze_game", okHandler(&calls), 3)

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	// The bucket is empty now; the rejection must come back immediately
	// instead of burning retries against the limiter.
	_, err = wrapped(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errRateLimited)
	assert.Equal(t, 1, calls)
}

func TestExtractClientID(t *testing.T) {
	req := mcp.CallToolRequest{}
	assert.Equal(t, "anonymous", extractClientID(context.Background(), req))

	req.Params.Arguments = map[string]interface{}{"clientID": "from-args"}
	assert.Equal(t, "from-args", extractClientID(context.Background(), req))

	ctx := ContextWithClientID(context.Background(), "from-ctx")
	assert.Equal(t, "from-ctx", extractClientID(ctx, req))
}
