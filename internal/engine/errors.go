package engine

import "errors"

var (
	// ErrEngineUnavailable means the engine binary is missing, the UCI
	// handshake failed, or a health check found the process dead. Analysis
	// is disabled until a new session can be acquired; the viewer keeps
	// working without it.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrInvalidEngineOutput means a search termination line was missing
	// expected fields. It is recovered locally by falling back to the last
	// known score and principal variation move, and only surfaces when the
	// engine produced no usable output at all.
	ErrInvalidEngineOutput = errors.New("invalid engine output")
)

// errReadTimeout marks a single bounded read expiring, as opposed to the
// engine closing its pipe.
var errReadTimeout = errors.New("timed out waiting for engine output")
