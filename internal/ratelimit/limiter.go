package ratelimit

import (
	"fmt"
	"sync"

	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/logging"
)

// Limiter enforces global and per-tool rate limits on tool calls. Analysis
// runs are expensive (one engine search per ply), so the analyze tool usually
// carries a tighter per-tool limit than the cheap position lookups.
type Limiter struct {
	logger       logging.ContextLogger
	config       *config.RateLimitConfig
	globalBucket *TokenBucket
	toolBuckets  map[string]*TokenBucket
	mu           sync.RWMutex
}

// NewLimiter creates a rate limiter, or nil when limiting is disabled.
// A nil *Limiter is valid and allows everything.
func NewLimiter(cfg *config.RateLimitConfig, logger logging.ContextLogger) *Limiter {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	tokensPerSecond := float64(cfg.RequestsPerMin) / 60.0

	limiter := &Limiter{
		logger:       logger,
		config:       cfg,
		globalBucket: NewTokenBucket(cfg.BurstSize, tokensPerSecond),
		toolBuckets:  make(map[string]*TokenBucket),
	}

	for tool, limit := range cfg.PerToolLimits {
		burstSize := (cfg.BurstSize * limit) / cfg.RequestsPerMin
		if burstSize < 1 {
			burstSize = 1
		}
		limiter.toolBuckets[tool] = NewTokenBucket(burstSize, float64(limit)/60.0)
	}

	return limiter
}

// Allow checks whether a call to toolName is within the rate limits.
func (l *Limiter) Allow(toolName string) (bool, error) {
	if l == nil {
		return true, nil
	}

	if !l.globalBucket.Allow(1) {
		l.logger.Warn("Global rate limit exceeded", "tool", toolName)
		return false, fmt.Errorf("global rate limit exceeded")
	}

	l.mu.RLock()
	toolBucket, hasToolLimit := l.toolBuckets[toolName]
	l.mu.RUnlock()

	if hasToolLimit && !toolBucket.Allow(1) {
		// Return the token to the global bucket since we are rejecting.
		l.globalBucket.Allow(-1)

		l.logger.Warn("Tool rate limit exceeded", "tool", toolName)
		return false, fmt.Errorf("rate limit exceeded for tool %s", toolName)
	}

	return true, nil
}

// Reset restores all buckets to full capacity.
func (l *Limiter) Reset() {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalBucket.Reset()
	for _, bucket := range l.toolBuckets {
		bucket.Reset()
	}
}

// GetStatus reports the limiter state for the engine_status tool.
func (l *Limiter) GetStatus() map[string]interface{} {
	if l == nil {
		return map[string]interface{}{"enabled": false}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	toolLimits := make(map[string]interface{})
	for tool, bucket := range l.toolBuckets {
		toolLimits[tool] = map[string]interface{}{
			"limit":  l.config.PerToolLimits[tool],
			"tokens": bucket.Tokens(),
		}
	}

	return map[string]interface{}{
		"enabled":        true,
		"requestsPerMin": l.config.RequestsPerMin,
		"burstSize":      l.config.BurstSize,
		"globalTokens":   l.globalBucket.Tokens(),
		"toolLimits":     toolLimits,
	}
}
