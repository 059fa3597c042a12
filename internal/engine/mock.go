package engine

import (
	"context"
	"sync"

	"github.com/notnil/chess"
)

// MockEngine is a scripted implementation of EngineInterface for testing.
// Evaluations are keyed by FEN, with an optional default for positions
// not scripted explicitly.
type MockEngine struct {
	mu             sync.Mutex
	running        bool
	startErr       error
	stopErr        error
	pingErr        error
	evalErr        error
	evals          map[string]*Evaluation
	defaultEval    *Evaluation
	evaluatedFENs  []string
	startCallCount int
	stopCallCount  int
	pingCallCount  int
}

// NewMockEngine creates a new mock engine.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		evals: make(map[string]*Evaluation),
	}
}

// SetRunning sets the running state.
func (m *MockEngine) SetRunning(running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = running
}

// SetStartError sets the error to return from Start.
func (m *MockEngine) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetPingError sets the error to return from Ping.
func (m *MockEngine) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// SetEvaluateError sets the error to return from Evaluate.
func (m *MockEngine) SetEvaluateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evalErr = err
}

// SetEvaluation scripts the result for a specific FEN.
func (m *MockEngine) SetEvaluation(fen string, eval *Evaluation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evals[fen] = eval
}

// SetDefaultEvaluation scripts the result for any unscripted FEN.
func (m *MockEngine) SetDefaultEvaluation(eval *Evaluation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultEval = eval
}

// EvaluatedFENs returns the FENs passed to Evaluate, in call order.
func (m *MockEngine) EvaluatedFENs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	fens := make([]string, len(m.evaluatedFENs))
	copy(fens, m.evaluatedFENs)
	return fens
}

// GetPingCallCount returns the number of times Ping was called.
func (m *MockEngine) GetPingCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingCallCount
}

// GetStartCallCount returns the number of times Start was called.
func (m *MockEngine) GetStartCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCallCount
}

// Start implements EngineInterface.
func (m *MockEngine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCallCount++
	if m.startErr != nil {
		return m.startErr
	}
	m.running = true
	return nil
}

// Stop implements EngineInterface.
func (m *MockEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCallCount++
	if m.stopErr != nil {
		return m.stopErr
	}
	m.running = false
	return nil
}

// IsRunning implements EngineInterface.
func (m *MockEngine) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Ping implements EngineInterface.
func (m *MockEngine) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingCallCount++
	if !m.running {
		return ErrEngineUnavailable
	}
	return m.pingErr
}

// Evaluate implements EngineInterface.
func (m *MockEngine) Evaluate(ctx context.Context, pos *chess.Position, depth int) (*Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil, ErrEngineUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fen := pos.String()
	m.evaluatedFENs = append(m.evaluatedFENs, fen)

	if m.evalErr != nil {
		return nil, m.evalErr
	}
	if eval, ok := m.evals[fen]; ok {
		return eval, nil
	}
	if m.defaultEval != nil {
		return m.defaultEval, nil
	}
	return &Evaluation{Score: 0}, nil
}

// Ensure MockEngine implements EngineInterface.
var _ EngineInterface = (*MockEngine)(nil)
