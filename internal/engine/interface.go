package engine

import (
	"context"

	"github.com/notnil/chess"
)

// EngineInterface defines the capability surface of a UCI engine session.
// This allows the analysis pipeline and the tool layer to substitute a
// scripted fake in tests without spawning a real process.
type EngineInterface interface {
	// Start launches the engine process and completes the UCI handshake
	Start(ctx context.Context) error

	// Stop quits and terminates the engine process
	Stop() error

	// IsRunning returns whether the session is usable
	IsRunning() bool

	// Ping checks if the engine is responsive
	Ping(ctx context.Context) error

	// Evaluate scores a single position
	Evaluate(ctx context.Context, pos *chess.Position, depth int) (*Evaluation, error)
}

// Ensure UCIEngine implements EngineInterface.
var _ EngineInterface = (*UCIEngine)(nil)
