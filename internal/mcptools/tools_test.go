package mcptools

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/engine"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/viewer"
)

const foolsMatePGN = `[Event "?"]
[White "Alice"]
[Black "Bob"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1`

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestHandler(t *testing.T) (*ToolsHandler, *engine.MockEngine) {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)

	logger := logging.NewLogger("[test] ", "error")
	mock := engine.NewMockEngine()
	supervisor := engine.NewSupervisorWithEngine(mock, &cfg.Engine, logger)
	session := viewer.NewSession(logger)

	return NewToolsHandler(supervisor, session, cfg, logger), mock
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleLoadGame(t *testing.T) {
	h, _ := newTestHandler(t)

	result, err := h.HandleLoadGame(context.Background(), callRequest(map[string]interface{}{
		"pgn": foolsMatePGN,
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "Bob")
	assert.Contains(t, text, "Moves: 4")
	assert.Contains(t, text, "Checkmate, Black wins")

	require.NotNil(t, h.session.Game())
	assert.Equal(t, 4, h.session.Game().MoveCount())
}

func TestHandleLoadGame_MissingPGN(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.HandleLoadGame(context.Background(), callRequest(map[string]interface{}{}))
	assert.Error(t, err)
}

func TestHandleLoadGame_InvalidPGN(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.HandleLoadGame(context.Background(), callRequest(map[string]interface{}{
		"pgn": "not a game }}{{",
	}))
	assert.Error(t, err)
	assert.Nil(t, h.session.Game())
}

func TestHandleAnalyzeGame(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.SetDefaultEvaluation(&engine.Evaluation{Score: 0.25})

	result, err := h.HandleAnalyzeGame(context.Background(), callRequest(map[string]interface{}{
		"pgn": foolsMatePGN,
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Game Review")
	// Flat evaluations mean no loss for either side
	assert.Contains(t, text, "White: 100.0%")
	assert.Contains(t, text, "Black: 100.0%")
	assert.Contains(t, text, "Best: 2")

	// One search per position, start included
	assert.Len(t, mock.EvaluatedFENs(), 5)

	// The review is stored on the session for the viewer
	review := h.session.Review()
	require.NotNil(t, review)
	assert.Len(t, review.Evaluations, 5)
	assert.Len(t, review.Moves, 4)
}

func TestHandleAnalyzeGame_UsesLoadedGame(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.SetDefaultEvaluation(&engine.Evaluation{Score: 0})

	_, err := h.session.Load(foolsMatePGN)
	require.NoError(t, err)

	_, err = h.HandleAnalyzeGame(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.Len(t, mock.EvaluatedFENs(), 5)
}

func TestHandleAnalyzeGame_NoGame(t *testing.T) {
	h, mock := newTestHandler(t)

	_, err := h.HandleAnalyzeGame(context.Background(), callRequest(map[string]interface{}{}))
	assert.Error(t, err)
	assert.Empty(t, mock.EvaluatedFENs())
}

func TestHandleAnalyzeGame_EngineUnavailable(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.SetStartError(fmt.Errorf("%w: binary missing", engine.ErrEngineUnavailable))

	_, err := h.HandleAnalyzeGame(context.Background(), callRequest(map[string]interface{}{
		"pgn": foolsMatePGN,
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrEngineUnavailable)
}

func TestHandleEvaluatePosition(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.SetEvaluation(startFEN, &engine.Evaluation{
		Score:       0.3,
		BestMove:    "e2e4",
		BestMoveSAN: "e4",
	})

	result, err := h.HandleEvaluatePosition(context.Background(), callRequest(map[string]interface{}{
		"fen": startFEN,
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Score: +0.30")
	assert.Contains(t, text, "Best move: e4 (e2e4)")
	assert.Contains(t, text, "50.9% white")
}

func TestHandleEvaluatePosition_Mate(t *testing.T) {
	h, mock := newTestHandler(t)
	mate := 2
	mock.SetDefaultEvaluation(&engine.Evaluation{Score: engine.EvalCap, Mate: &mate})

	result, err := h.HandleEvaluatePosition(context.Background(), callRequest(map[string]interface{}{
		"fen": startFEN,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Mate in 2")
}

func TestHandleEvaluatePosition_InvalidFEN(t *testing.T) {
	h, mock := newTestHandler(t)

	_, err := h.HandleEvaluatePosition(context.Background(), callRequest(map[string]interface{}{
		"fen": "not a fen",
	}))
	assert.Error(t, err)
	assert.Empty(t, mock.EvaluatedFENs())
}

func TestHandleEngineStatus(t *testing.T) {
	h, _ := newTestHandler(t)

	result, err := h.HandleEngineStatus(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, `"running": false`)
	assert.Contains(t, text, `"enabled": false`)
}

func TestHandleEngineStatus_RunningEngine(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.SetRunning(true)

	result, err := h.HandleEngineStatus(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), `"running": true`)
}
