package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInfoLine_CentipawnScore(t *testing.T) {
	info, ok := parseInfoLine("info depth 10 seldepth 14 multipv 1 score cp 35 nodes 20000 nps 500000 pv e2e4 e7e5 g1f3")
	require.True(t, ok)
	assert.True(t, info.hasScore)
	assert.False(t, info.isMate)
	assert.Equal(t, 35, info.cp)
	assert.Equal(t, "e2e4", info.pvMove)
}

func TestParseInfoLine_MateScore(t *testing.T) {
	info, ok := parseInfoLine("info depth 7 score mate 3 pv h5f7")
	require.True(t, ok)
	assert.True(t, info.isMate)
	assert.Equal(t, 3, info.mate)
	assert.Equal(t, "h5f7", info.pvMove)
}

func TestParseInfoLine_NegativeScores(t *testing.T) {
	info, ok := parseInfoLine("info depth 12 score cp -180 pv d7d5")
	require.True(t, ok)
	assert.Equal(t, -180, info.cp)

	info, ok = parseInfoLine("info depth 9 score mate -2")
	require.True(t, ok)
	assert.True(t, info.isMate)
	assert.Equal(t, -2, info.mate)
}

func TestParseInfoLine_Rejects(t *testing.T) {
	cases := map[string]string{
		"no score or pv":  "info depth 3 nodes 500 nps 100000",
		"malformed score": "info depth 3 score cp abc",
		"truncated score": "info depth 3 score cp",
		"unknown kind":    "info score lowerbound 10",
		"not an info":     "bestmove e2e4",
		"empty":           "",
	}
	for name, line := range cases {
		_, ok := parseInfoLine(line)
		assert.False(t, ok, name)
	}
}

func TestParseBestMove(t *testing.T) {
	move, err := parseBestMove("bestmove e2e4 ponder e7e5")
	require.NoError(t, err)
	assert.Equal(t, "e2e4", move)

	move, err = parseBestMove("bestmove a7a8q")
	require.NoError(t, err)
	assert.Equal(t, "a7a8q", move)
}

func TestParseBestMove_None(t *testing.T) {
	// Checkmate and stalemate positions report no move; not an error
	move, err := parseBestMove("bestmove (none)")
	require.NoError(t, err)
	assert.Equal(t, "", move)
}

func TestParseBestMove_Malformed(t *testing.T) {
	_, err := parseBestMove("bestmove")
	assert.ErrorIs(t, err, ErrInvalidEngineOutput)

	_, err = parseBestMove("readyok")
	assert.ErrorIs(t, err, ErrInvalidEngineOutput)
}

func TestConvertScore_Centipawns(t *testing.T) {
	score, mate := convertScore(searchState{hasScore: true, cp: 35}, true)
	assert.InDelta(t, 0.35, score, 1e-9)
	assert.Nil(t, mate)

	// Engine scores are relative to the side to move; flip for Black
	score, _ = convertScore(searchState{hasScore: true, cp: 35}, false)
	assert.InDelta(t, -0.35, score, 1e-9)

	score, _ = convertScore(searchState{hasScore: true, cp: -120}, false)
	assert.InDelta(t, 1.20, score, 1e-9)
}

func TestConvertScore_ClampInvariant(t *testing.T) {
	for _, cp := range []int{2500, -2500, 100000, -100000, 1500, 1501} {
		for _, whiteToMove := range []bool{true, false} {
			score, _ := convertScore(searchState{hasScore: true, cp: cp}, whiteToMove)
			assert.LessOrEqual(t, score, EvalCap)
			assert.GreaterOrEqual(t, score, -EvalCap)
		}
	}
}

func TestConvertScore_MatePinsToCap(t *testing.T) {
	score, mate := convertScore(searchState{hasScore: true, isMate: true, mate: 3}, true)
	assert.Equal(t, EvalCap, score)
	require.NotNil(t, mate)
	assert.Equal(t, 3, *mate)

	// Mating side is Black: stored score flips to White's perspective
	score, mate = convertScore(searchState{hasScore: true, isMate: true, mate: 3}, false)
	assert.Equal(t, -EvalCap, score)
	require.NotNil(t, mate)
	assert.Equal(t, -3, *mate)

	// Mate 0 means the side to move is already mated
	score, _ = convertScore(searchState{hasScore: true, isMate: true, mate: 0}, true)
	assert.Equal(t, -EvalCap, score)

	score, _ = convertScore(searchState{hasScore: true, isMate: true, mate: -2}, true)
	assert.Equal(t, -EvalCap, score)

	score, _ = convertScore(searchState{hasScore: true, isMate: true, mate: -2}, false)
	assert.Equal(t, EvalCap, score)
}

func TestSearchState_LastWins(t *testing.T) {
	var state searchState

	info, _ := parseInfoLine("info depth 4 score cp 10 pv e2e4")
	state.absorb(info)
	info, _ = parseInfoLine("info depth 8 score cp 55 pv d2d4")
	state.absorb(info)
	// A pv-less line still overwrites the score but keeps the move
	info, _ = parseInfoLine("info depth 10 score mate 5")
	state.absorb(info)

	assert.True(t, state.isMate)
	assert.Equal(t, 5, state.mate)
	assert.Equal(t, "d2d4", state.pvMove)
}
