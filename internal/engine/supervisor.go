package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/metrics"
	"github.com/pgnview/pgnview/internal/retry"
)

// Supervisor manages the engine session lifecycle. The session is created
// lazily on first Acquire, reused across requests while healthy, and
// recreated when a health check fails.
type Supervisor struct {
	engine       EngineInterface
	config       *config.EngineConfig
	logger       logging.ContextLogger
	retryManager *retry.Manager
	prom         *metrics.PrometheusCollector

	mu                  sync.RWMutex
	running             bool
	acquired            bool
	stopCh              chan struct{}
	restartCh           chan struct{}
	healthCheckInterval time.Duration
}

// NewSupervisor creates a supervisor around a real engine.
func NewSupervisor(cfg *config.EngineConfig, logger logging.ContextLogger) *Supervisor {
	return NewSupervisorWithEngine(NewEngine(cfg, logger), cfg, logger)
}

// NewSupervisorWithEngine creates a supervisor around a provided engine.
// Used by tests to inject a mock.
func NewSupervisorWithEngine(eng EngineInterface, cfg *config.EngineConfig, logger logging.ContextLogger) *Supervisor {
	retryConfig := retry.Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}

	return &Supervisor{
		engine:              eng,
		config:              cfg,
		logger:              logger,
		retryManager:        retry.NewManager(retryConfig),
		prom:                metrics.NewPrometheusCollector(),
		stopCh:              make(chan struct{}),
		restartCh:           make(chan struct{}, 1),
		healthCheckInterval: 30 * time.Second,
	}
}

// Start begins the health check loop. The engine itself is not launched
// until the first Acquire.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("supervisor already running")
	}

	s.running = true
	go s.supervise(ctx)
	return nil
}

// Stop stops the supervisor and the engine.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	return s.engine.Stop()
}

// Acquire returns a usable engine session, launching it on first use.
// Returns ErrEngineUnavailable when the engine cannot be started.
func (s *Supervisor) Acquire(ctx context.Context) (EngineInterface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.IsRunning() {
		return s.engine, nil
	}

	s.logger.Info("Launching engine on first use")
	if err := s.engine.Start(ctx); err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.engine.Ping(pingCtx); err != nil {
		_ = s.engine.Stop()
		return nil, fmt.Errorf("%w: engine not responsive after start: %v", ErrEngineUnavailable, err)
	}

	s.acquired = true
	return s.engine, nil
}

// GetEngine returns the underlying engine without launching it.
func (s *Supervisor) GetEngine() EngineInterface {
	return s.engine
}

// Restart requests an engine restart. No-op when one is already pending.
func (s *Supervisor) Restart() {
	select {
	case s.restartCh <- struct{}{}:
		s.logger.Info("Manual engine restart requested")
	default:
	}
}

// wasAcquired reports whether the engine has ever been launched. The
// health loop leaves a never-acquired engine alone.
func (s *Supervisor) wasAcquired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acquired
}

func (s *Supervisor) supervise(ctx context.Context) {
	s.logger.Info("Starting engine supervisor")

	healthTicker := time.NewTicker(s.healthCheckInterval)
	defer healthTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Supervisor context cancelled")
			return

		case <-s.stopCh:
			s.logger.Info("Supervisor stopped")
			return

		case <-s.restartCh:
			s.logger.Info("Processing engine restart request")
			if err := s.engine.Stop(); err != nil {
				s.logger.Error("Failed to stop engine for restart", "error", err)
			}
			s.restartEngine(ctx)

		case <-healthTicker.C:
			if !s.wasAcquired() {
				continue
			}

			if !s.engine.IsRunning() {
				s.prom.RecordEngineHealthCheck(false)
				s.logger.Warn("Engine not running, restarting")
				s.restartEngine(ctx)
				continue
			}

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := s.engine.Ping(pingCtx)
			cancel()

			if err != nil {
				s.prom.RecordEngineHealthCheck(false)
				s.logger.Error("Engine health check failed", "error", err)
				if err := s.engine.Stop(); err != nil {
					s.logger.Error("Failed to stop unhealthy engine", "error", err)
				}
				s.restartEngine(ctx)
			} else {
				s.prom.RecordEngineHealthCheck(true)
			}
		}
	}
}

// restartEngine relaunches the engine with exponential backoff.
func (s *Supervisor) restartEngine(ctx context.Context) {
	err := s.retryManager.Run(ctx, func(retryCtx context.Context) error {
		select {
		case <-s.stopCh:
			return fmt.Errorf("supervisor stopped")
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.logger.Info("Starting engine")
		if err := s.engine.Start(retryCtx); err != nil {
			s.logger.Error("Failed to start engine", "error", err)
			return err
		}

		pingCtx, cancel := context.WithTimeout(retryCtx, 10*time.Second)
		defer cancel()

		if err := s.engine.Ping(pingCtx); err != nil {
			s.logger.Error("Engine not responsive after start", "error", err)
			_ = s.engine.Stop()
			return err
		}

		s.prom.RecordEngineRestart()
		s.logger.Info("Engine restarted")
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to restart engine after retries", "error", err)
	}
}
