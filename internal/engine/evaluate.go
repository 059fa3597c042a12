package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notnil/chess"
)

// Evaluate scores a single position at the given depth (0 uses the
// configured default). The result is stored from White's perspective and
// clamped to [-EvalCap, EvalCap]. Results are cached by FEN and depth, so
// stepping back through an analyzed game never repeats a search.
func (e *UCIEngine) Evaluate(ctx context.Context, pos *chess.Position, depth int) (*Evaluation, error) {
	if pos == nil {
		return nil, fmt.Errorf("nil position")
	}
	if depth <= 0 {
		depth = e.config.Depth
	}

	fen := pos.String()
	key := fmt.Sprintf("%s|%d", fen, depth)
	if cached, ok := e.cache.Get(key); ok {
		e.prom.RecordCacheHit()
		return cached.(*Evaluation), nil
	}
	e.prom.RecordCacheMiss()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.IsRunning() {
		return nil, ErrEngineUnavailable
	}

	e.setState(StateSearching)
	defer func() {
		if e.State() == StateSearching {
			e.setState(StateReady)
		}
	}()

	start := time.Now()
	state, bestMove, err := e.search(ctx, fen, depth)
	if err != nil {
		return nil, err
	}
	e.prom.RecordSearch(time.Since(start).Seconds())

	eval := e.buildEvaluation(state, bestMove, pos)
	e.cache.Put(key, eval)
	return eval, nil
}

// search runs one position/go exchange and reads until the terminal
// bestmove line. Caller holds e.mu.
func (e *UCIEngine) search(ctx context.Context, fen string, depth int) (searchState, string, error) {
	if err := e.send("position fen " + fen); err != nil {
		return searchState{}, "", err
	}
	if err := e.send(fmt.Sprintf("go depth %d", depth)); err != nil {
		return searchState{}, "", err
	}

	deadline := time.Now().Add(secondsToDuration(e.config.SearchTimeoutSec))
	var state searchState

	for {
		if err := ctx.Err(); err != nil {
			e.abortSearch()
			return state, "", err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			e.abortSearch()
			return state, "", fmt.Errorf("search of %s timed out", fen)
		}
		// Short per-read wait so cancellation is noticed promptly.
		if remaining > 250*time.Millisecond {
			remaining = 250 * time.Millisecond
		}

		line, err := e.readLine(remaining)
		if err != nil {
			if errors.Is(err, errReadTimeout) {
				continue
			}
			return state, "", fmt.Errorf("search aborted: %w", err)
		}

		switch {
		case strings.HasPrefix(line, "info"):
			if info, ok := parseInfoLine(line); ok {
				state.absorb(info)
			}

		case strings.HasPrefix(line, "bestmove"):
			move, parseErr := parseBestMove(line)
			if parseErr != nil {
				// Fall back to the last principal-variation move rather
				// than failing the whole run on a transiently short line.
				e.logger.Warn("Malformed bestmove line, using last PV move",
					"line", line, "pv", state.pvMove)
				move = state.pvMove
			}
			if !state.hasScore {
				return state, "", fmt.Errorf("%w: no score before bestmove for %s", ErrInvalidEngineOutput, fen)
			}
			return state, move, nil
		}
	}
}

// abortSearch stops an in-flight search and drains until its bestmove so
// the session stays usable after a cancelled or timed-out run. Without the
// drain, the aborted search's late info/bestmove lines would be read as
// the next position's result. An engine that never acknowledges the stop
// gets its session terminated; the supervisor relaunches it.
func (e *UCIEngine) abortSearch() {
	if err := e.send("stop"); err != nil {
		e.terminate()
		return
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		line, err := e.readLine(remaining)
		if err != nil {
			break
		}
		if strings.HasPrefix(line, "bestmove") {
			return
		}
	}

	e.logger.Warn("Engine did not acknowledge stop, terminating session")
	e.terminate()
}

// buildEvaluation converts the accumulated search state into the stored
// White-perspective result. The move from the terminal line is validated
// against the position's legal moves; an illegal or absent move yields an
// empty BestMove, not an error (checkmate and stalemate positions report
// "bestmove (none)").
func (e *UCIEngine) buildEvaluation(state searchState, move string, pos *chess.Position) *Evaluation {
	whiteToMove := pos.Turn() == chess.White
	score, mate := convertScore(state, whiteToMove)

	eval := &Evaluation{Score: score, Mate: mate}
	if move == "" {
		return eval
	}

	decoded, err := chess.UCINotation{}.Decode(pos, move)
	if err != nil {
		e.logger.Warn("Engine move not legal in position", "move", move, "fen", pos.String())
		return eval
	}

	eval.BestMove = move
	eval.BestMoveSAN = chess.AlgebraicNotation{}.Encode(pos, decoded)
	return eval
}
