package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// lineInfo is the payload extracted from a single UCI info line.
type lineInfo struct {
	hasScore bool
	isMate   bool
	cp       int
	mate     int
	pvMove   string
}

// searchState accumulates info lines across one search. Later lines
// overwrite earlier ones: engines emit increasingly deep results as the
// search progresses, so last-wins is intentional.
type searchState struct {
	hasScore bool
	isMate   bool
	cp       int
	mate     int
	pvMove   string
}

func (s *searchState) absorb(info lineInfo) {
	if info.hasScore {
		s.hasScore = true
		s.isMate = info.isMate
		s.cp = info.cp
		s.mate = info.mate
	}
	if info.pvMove != "" {
		s.pvMove = info.pvMove
	}
}

// parseInfoLine extracts the score and the first principal-variation move
// from a UCI info line. Returns ok=false when the line carries neither,
// or when the fields it does carry are malformed.
func parseInfoLine(line string) (lineInfo, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return lineInfo{}, false
	}

	var info lineInfo
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "score":
			if i+2 >= len(fields) {
				return lineInfo{}, false
			}
			value, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return lineInfo{}, false
			}
			switch fields[i+1] {
			case "cp":
				info.hasScore = true
				info.isMate = false
				info.cp = value
			case "mate":
				info.hasScore = true
				info.isMate = true
				info.mate = value
			default:
				return lineInfo{}, false
			}
			i += 2
		case "pv":
			if i+1 < len(fields) {
				info.pvMove = fields[i+1]
			}
			// pv runs to end of line; nothing else follows
			i = len(fields)
		}
	}

	if !info.hasScore && info.pvMove == "" {
		return lineInfo{}, false
	}
	return info, true
}

// parseBestMove extracts the move token from a terminal bestmove line.
// The "(none)" token (checkmate or stalemate position) yields an empty
// move with no error.
func parseBestMove(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", fmt.Errorf("%w: malformed bestmove line %q", ErrInvalidEngineOutput, line)
	}
	if fields[1] == "(none)" {
		return "", nil
	}
	return fields[1], nil
}

// convertScore turns the raw engine score (relative to the side to move)
// into the stored White-perspective convention. Mate scores pin to the
// cap: mate N with N > 0 favors the side to move, anything else (mate 0
// means the side to move is already mated) counts against it.
func convertScore(state searchState, whiteToMove bool) (float64, *int) {
	if state.isMate {
		score := EvalCap
		if state.mate <= 0 {
			score = -EvalCap
		}
		mate := state.mate
		if !whiteToMove {
			score = -score
			mate = -mate
		}
		return score, &mate
	}

	score := float64(state.cp) / 100.0
	if !whiteToMove {
		score = -score
	}
	return clampScore(score), nil
}
