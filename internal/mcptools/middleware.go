package mcptools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/metrics"
	"github.com/pgnview/pgnview/internal/ratelimit"
)

// Middleware wraps tool handlers with logging, rate limiting and metrics.
type Middleware struct {
	logger      logging.ContextLogger
	metrics     *metrics.Collector
	rateLimiter *ratelimit.Limiter
}

// NewMiddleware creates a middleware instance. A nil rate limiter means
// limiting is disabled.
func NewMiddleware(logger logging.ContextLogger, collector *metrics.Collector, rateLimiter *ratelimit.Limiter) *Middleware {
	return &Middleware{
		logger:      logger,
		metrics:     collector,
		rateLimiter: rateLimiter,
	}
}

// ToolHandler is the function signature for MCP tool handlers.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// errRateLimited marks a rejection that retry wrappers must not retry.
var errRateLimited = errors.New("rate limit exceeded")

// WrapTool adds the standard middleware around a tool handler.
func (m *Middleware) WrapTool(toolName string, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		clientID := extractClientID(ctx, request)

		m.logger.Info("Tool request received", "tool", toolName, "client", clientID)

		if allowed, err := m.rateLimiter.Allow(toolName); !allowed {
			m.logger.Warn("Rate limit exceeded", "tool", toolName, "client", clientID, "error", err)
			m.metrics.RecordToolCall(toolName, "rate_limited", time.Since(start))
			return nil, fmt.Errorf("%w for tool %s: %v", errRateLimited, toolName, err)
		}

		result, err := handler(ctx, request)

		status := "success"
		if err != nil {
			status = "error"
			m.logger.Error("Tool request failed",
				"tool", toolName,
				"client", clientID,
				"error", err,
				"duration", time.Since(start),
			)
		} else {
			m.logger.Info("Tool request completed",
				"tool", toolName,
				"client", clientID,
				"duration", time.Since(start),
			)
		}
		m.metrics.RecordToolCall(toolName, status, time.Since(start))

		return result, err
	}
}

// WrapToolWithRetry adds retry with backoff on top of the standard
// middleware. Rate limit rejections are never retried.
func (m *Middleware) WrapToolWithRetry(toolName string, handler ToolHandler, maxRetries int) ToolHandler {
	wrapped := m.WrapTool(toolName, handler)

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				shift := attempt - 1
				if shift > 10 {
					shift = 10
				}
				backoff := time.Duration(1<<uint(shift)) * 100 * time.Millisecond // #nosec G115 -- shift is bounded
				m.logger.Debug("Retrying tool request", "tool", toolName, "attempt", attempt, "backoff", backoff)

				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
			}

			result, err := wrapped(ctx, request)
			if err == nil {
				return result, nil
			}
			if errors.Is(err, errRateLimited) {
				return nil, err
			}
			lastErr = err
		}

		return nil, fmt.Errorf("tool %s failed after %d retries: %w", toolName, maxRetries, lastErr)
	}
}

// extractClientID pulls a client identifier out of the request for
// logging and falls back to "anonymous".
func extractClientID(ctx context.Context, request mcp.CallToolRequest) string {
	if clientID, ok := ctx.Value(clientIDKey{}).(string); ok && clientID != "" {
		return clientID
	}

	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if clientID, ok := args["clientID"].(string); ok && clientID != "" {
			return clientID
		}
	}

	return "anonymous"
}

type clientIDKey struct{}

// ContextWithClientID attaches a client identifier for middleware logging.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}
