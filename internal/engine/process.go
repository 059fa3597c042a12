package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pgnview/pgnview/internal/cache"
	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/metrics"
)

// UCIEngine manages a UCI chess engine subprocess. One session handles one
// search at a time; all protocol exchanges are serialized on an internal
// mutex so two analysis runs can never interleave commands on the pipes.
type UCIEngine struct {
	config *config.EngineConfig
	logger logging.ContextLogger
	cache  *cache.LRU
	prom   *metrics.PrometheusCollector

	// mu serializes protocol exchanges (handshake, ping, search, quit).
	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	stateMu sync.RWMutex
	state   State
}

// NewEngine creates an engine for the given configuration. The process is
// not launched until Start.
func NewEngine(cfg *config.EngineConfig, logger logging.ContextLogger) *UCIEngine {
	return &UCIEngine{
		config: cfg,
		logger: logger,
		cache:  cache.NewLRU(cfg.CacheEntries),
		prom:   metrics.NewPrometheusCollector(),
		state:  StateUninitialized,
	}
}

// Start launches the engine subprocess and performs the UCI handshake:
// send uci, wait for uciok, set the hash size, then synchronize on
// isready/readyok. The handshake is bounded by both a timeout and a line
// cap so a binary that is not a UCI engine cannot hang the caller.
func (e *UCIEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state := e.State(); state == StateReady || state == StateSearching {
		return fmt.Errorf("engine already running")
	}

	e.cmd = exec.CommandContext(ctx, e.config.BinaryPath) // #nosec G204 -- BinaryPath is validated configuration

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to create stdin pipe: %v", ErrEngineUnavailable, err)
	}
	e.stdin = stdin

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to create stdout pipe: %v", ErrEngineUnavailable, err)
	}

	stderr, err := e.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to create stderr pipe: %v", ErrEngineUnavailable, err)
	}

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start %s: %v", ErrEngineUnavailable, e.config.BinaryPath, err)
	}

	e.lines = make(chan string, 64)
	go readLines(stdout, e.lines)
	go e.readStderr(stderr)

	if err := e.handshake(); err != nil {
		e.terminate()
		return err
	}

	e.setState(StateReady)
	e.prom.RecordEngineStatus(true)
	e.logger.Info("UCI engine started",
		"binary", e.config.BinaryPath,
		"hashMB", e.config.HashMB,
		"depth", e.config.Depth,
	)
	return nil
}

// Stop sends quit and terminates the process. Tolerates the process having
// already exited.
func (e *UCIEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state := e.State(); state == StateUninitialized || state == StateTerminated {
		return nil
	}

	_ = e.send("quit")
	e.terminate()
	e.logger.Info("UCI engine stopped")
	return nil
}

// IsRunning reports whether the session is usable.
func (e *UCIEngine) IsRunning() bool {
	state := e.State()
	return state == StateReady || state == StateSearching
}

// State returns the current protocol state.
func (e *UCIEngine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Ping checks engine responsiveness with an isready/readyok exchange.
func (e *UCIEngine) Ping(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.IsRunning() {
		return ErrEngineUnavailable
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if err := e.send("isready"); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := e.waitFor("readyok", e.config.HandshakeLineCap, timeout); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}

// CacheStats reports evaluation cache counters for the status tool.
func (e *UCIEngine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

func (e *UCIEngine) setState(state State) {
	e.stateMu.Lock()
	e.state = state
	e.stateMu.Unlock()
}

func (e *UCIEngine) handshake() error {
	timeout := secondsToDuration(e.config.HandshakeTimeoutSec)

	if err := e.send("uci"); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := e.waitFor("uciok", e.config.HandshakeLineCap, timeout); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	if err := e.send(fmt.Sprintf("setoption name Hash value %d", e.config.HashMB)); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	if err := e.send("isready"); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := e.waitFor("readyok", e.config.HandshakeLineCap, timeout); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}

func (e *UCIEngine) send(command string) error {
	if e.stdin == nil {
		return fmt.Errorf("engine stdin not open")
	}
	if _, err := fmt.Fprintf(e.stdin, "%s\n", command); err != nil {
		return fmt.Errorf("failed to write %q to engine: %w", command, err)
	}
	return nil
}

// readLine returns the next line from the engine, or an error when none
// arrives within the timeout or the engine closed its output.
func (e *UCIEngine) readLine(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-e.lines:
		if !ok {
			return "", fmt.Errorf("engine closed its output")
		}
		return line, nil
	case <-timer.C:
		return "", fmt.Errorf("%w after %s", errReadTimeout, timeout)
	}
}

// waitFor reads lines until one starts with the given token, bounded by
// both a line cap and a timeout.
func (e *UCIEngine) waitFor(token string, lineCap int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for i := 0; i < lineCap; i++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("no %q within %s", token, timeout)
		}

		line, err := e.readLine(remaining)
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, token) {
			return nil
		}
	}
	return fmt.Errorf("no %q within %d lines", token, lineCap)
}

// terminate closes stdin and waits for the process to exit, killing it
// after a grace period. Caller holds e.mu.
func (e *UCIEngine) terminate() {
	if e.stdin != nil {
		_ = e.stdin.Close()
	}

	done := make(chan error, 1)
	go func() {
		if e.cmd != nil && e.cmd.Process != nil {
			done <- e.cmd.Wait()
		} else {
			done <- nil
		}
	}()

	select {
	case err := <-done:
		if err != nil {
			e.logger.Debug("Engine process exited with error", "error", err)
		}
	case <-time.After(5 * time.Second):
		if e.cmd != nil && e.cmd.Process != nil {
			_ = e.cmd.Process.Kill()
		}
	}

	e.setState(StateTerminated)
	e.prom.RecordEngineStatus(false)
}

func (e *UCIEngine) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			e.logger.Debug("Engine stderr", "line", line)
		}
	}
}

// readLines feeds trimmed non-empty stdout lines into the channel and
// closes it when the engine exits.
func readLines(r io.Reader, lines chan<- string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines <- line
		}
	}
	close(lines)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
