package engine

// EvalCap bounds every evaluation to [-EvalCap, EvalCap] pawns. A forced
// mate maps to the cap with the sign of the mating side.
const EvalCap = 15.0

// State tracks the engine session protocol state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateSearching
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateSearching:
		return "searching"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Evaluation is the engine's verdict on a single position. Score and Mate
// are stored from White's perspective regardless of the side to move.
type Evaluation struct {
	// Score in pawns, clamped to [-EvalCap, EvalCap]. Positive favors White.
	Score float64 `json:"score"`

	// Mate is the reported moves-to-mate when the last score line was a
	// mate score, nil otherwise. Positive means White mates.
	Mate *int `json:"mate,omitempty"`

	// BestMove in coordinate notation (e2e4, a7a8q). Empty when the engine
	// reported none or the move was not legal in the position.
	BestMove string `json:"bestMove,omitempty"`

	// BestMoveSAN is BestMove rendered in standard algebraic notation.
	BestMoveSAN string `json:"bestMoveSAN,omitempty"`
}

func clampScore(score float64) float64 {
	if score > EvalCap {
		return EvalCap
	}
	if score < -EvalCap {
		return -EvalCap
	}
	return score
}
