package retry

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// Config defines retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 = infinite).
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// Jitter adds randomness to delays (0-1).
	Jitter float64
}

// DefaultConfig returns a sensible default for engine restarts.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  0,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Manager handles retry logic with exponential backoff.
type Manager struct {
	config Config
}

// NewManager creates a new retry manager.
func NewManager(config Config) *Manager {
	return &Manager{config: config}
}

// Run executes fn until it succeeds, the attempt budget is spent, or the
// context is cancelled. Returns the last error on failure.
func (m *Manager) Run(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		attempt++

		if m.config.MaxAttempts > 0 && attempt >= m.config.MaxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay(attempt)):
		}
	}
}

// delay computes the backoff for the given attempt number (1-based).
func (m *Manager) delay(attempt int) time.Duration {
	d := float64(m.config.InitialDelay) * math.Pow(m.config.Multiplier, float64(attempt-1))
	if d > float64(m.config.MaxDelay) {
		d = float64(m.config.MaxDelay)
	}

	if m.config.Jitter > 0 {
		jitter := d * m.config.Jitter
		if span := int64(jitter * 2); span > 0 {
			if n, err := rand.Int(rand.Reader, big.NewInt(span)); err == nil {
				d += float64(n.Int64()) - jitter
			}
		}
	}

	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// NextDelay exposes the delay for a given attempt, for tests and logging.
func (m *Manager) NextDelay(attempt int) time.Duration {
	return m.delay(attempt)
}
