// Package mcptools exposes the viewer and the analysis pipeline as MCP
// tools. The tool layer never drives the engine directly; it goes through
// the supervisor so sessions are acquired lazily and replaced when
// unhealthy.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/notnil/chess"

	"github.com/pgnview/pgnview/internal/analysis"
	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/engine"
	"github.com/pgnview/pgnview/internal/game"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/ratelimit"
	"github.com/pgnview/pgnview/internal/viewer"
)

// ToolsHandler manages the MCP tools.
type ToolsHandler struct {
	supervisor *engine.Supervisor
	session    *viewer.Session
	config     *config.Config
	logger     logging.ContextLogger
	limiter    *ratelimit.Limiter
	middleware *Middleware
}

// NewToolsHandler creates a tools handler.
func NewToolsHandler(supervisor *engine.Supervisor, session *viewer.Session, cfg *config.Config, logger logging.ContextLogger) *ToolsHandler {
	return &ToolsHandler{
		supervisor: supervisor,
		session:    session,
		config:     cfg,
		logger:     logger,
	}
}

// SetMiddleware installs the middleware applied during RegisterTools.
func (h *ToolsHandler) SetMiddleware(middleware *Middleware) {
	h.middleware = middleware
	if middleware != nil {
		h.limiter = middleware.rateLimiter
	}
}

// RegisterTools registers all tools with the MCP server.
func (h *ToolsHandler) RegisterTools(s *server.MCPServer) {
	loadGameTool := mcp.NewTool("load_game",
		mcp.WithDescription("Load a chess game from PGN. Replaces the current game and discards any previous analysis."),
		mcp.WithString("pgn",
			mcp.Description("PGN text of the game"),
			mcp.Required(),
		),
	)
	loadHandler := h.HandleLoadGame
	if h.middleware != nil {
		loadHandler = h.middleware.WrapTool("load_game", loadHandler)
	}
	s.AddTool(loadGameTool, loadHandler)

	analyzeGameTool := mcp.NewTool("analyze_game",
		mcp.WithDescription("Run engine analysis over every position of the loaded game: per-move quality labels and per-side accuracy. Pass PGN to load and analyze in one call."),
		mcp.WithString("pgn",
			mcp.Description("PGN to load before analyzing. Omit to analyze the already loaded game."),
		),
		mcp.WithNumber("depth",
			mcp.Description("Search depth per position (default: from config)"),
		),
	)
	analyzeHandler := h.HandleAnalyzeGame
	if h.middleware != nil {
		analyzeHandler = h.middleware.WrapToolWithRetry("analyze_game", analyzeHandler, 2)
	}
	s.AddTool(analyzeGameTool, analyzeHandler)

	evaluatePositionTool := mcp.NewTool("evaluate_position",
		mcp.WithDescription("Score a single position given as FEN"),
		mcp.WithString("fen",
			mcp.Description("FEN of the position to evaluate"),
			mcp.Required(),
		),
		mcp.WithNumber("depth",
			mcp.Description("Search depth (default: from config)"),
		),
	)
	evaluateHandler := h.HandleEvaluatePosition
	if h.middleware != nil {
		evaluateHandler = h.middleware.WrapTool("evaluate_position", evaluateHandler)
	}
	s.AddTool(evaluatePositionTool, evaluateHandler)

	engineStatusTool := mcp.NewTool("engine_status",
		mcp.WithDescription("Report engine availability, evaluation cache statistics and rate limit state"),
	)
	statusHandler := h.HandleEngineStatus
	if h.middleware != nil {
		statusHandler = h.middleware.WrapTool("engine_status", statusHandler)
	}
	s.AddTool(engineStatusTool, statusHandler)
}

func (h *ToolsHandler) toolLogger(ctx context.Context, tool string) (context.Context, logging.ContextLogger) {
	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())
	return ctx, h.logger.WithContext(ctx).WithField("tool", tool)
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return nil, fmt.Errorf("missing arguments")
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return args, nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	val, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

func intArg(args map[string]interface{}, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		if int(v) > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}
	return fallback
}

// HandleLoadGame handles the load_game tool.
func (h *ToolsHandler) HandleLoadGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.toolLogger(ctx, "load_game")

	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	pgn, err := stringArg(args, "pgn")
	if err != nil {
		return nil, err
	}

	g, err := h.session.Load(pgn)
	if err != nil {
		logger.Error("Failed to load game", "error", err)
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Game Loaded\n\n")
	if white, black := g.Header("White"), g.Header("Black"); white != "" || black != "" {
		sb.WriteString(fmt.Sprintf("**%s** vs **%s**\n", orUnknown(white), orUnknown(black)))
	}
	if event := g.Header("Event"); event != "" {
		sb.WriteString(fmt.Sprintf("- Event: %s\n", event))
	}
	if date := g.Header("Date"); date != "" {
		sb.WriteString(fmt.Sprintf("- Date: %s\n", date))
	}
	sb.WriteString(fmt.Sprintf("- Result: %s\n", g.Result()))
	sb.WriteString(fmt.Sprintf("- Moves: %d\n", g.MoveCount()))
	if final, err := g.Position(g.MoveCount()); err == nil {
		sb.WriteString(fmt.Sprintf("- Final position: %s\n", game.Describe(final)))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleAnalyzeGame handles the analyze_game tool.
func (h *ToolsHandler) HandleAnalyzeGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, logger := h.toolLogger(ctx, "analyze_game")

	args, err := arguments(request)
	if err != nil {
		args = map[string]interface{}{}
	}

	if pgnVal, ok := args["pgn"]; ok {
		pgn, ok := pgnVal.(string)
		if !ok {
			return nil, fmt.Errorf("pgn must be a string")
		}
		if _, err := h.session.Load(pgn); err != nil {
			return nil, fmt.Errorf("failed to load game: %w", err)
		}
	}

	g := h.session.Game()
	if g == nil {
		return nil, fmt.Errorf("no game loaded; call load_game first or pass pgn")
	}

	depth := intArg(args, "depth", h.config.Engine.Depth)

	eng, err := h.supervisor.Acquire(ctx)
	if err != nil {
		logger.Error("Engine unavailable", "error", err)
		return nil, fmt.Errorf("%w\n\n%s", err, engine.GetInstallationInstructions())
	}

	logger.Info("Starting analysis", "moves", g.MoveCount(), "depth", depth)
	pipeline := analysis.NewPipeline(eng, depth, logger)
	review, err := pipeline.Analyze(ctx, g, func(index, total int) {
		logger.Debug("Analyzing position", "position", index+1, "total", total)
	})
	if h.middleware != nil && h.middleware.metrics != nil {
		h.middleware.metrics.RecordAnalysisRun(g.MoveCount()+1, err != nil)
	}
	if err != nil {
		return nil, err
	}

	if err := h.session.SetReview(review); err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(formatReview(g.Header("White"), g.Header("Black"), review)), nil
}

// HandleEvaluatePosition handles the evaluate_position tool.
func (h *ToolsHandler) HandleEvaluatePosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, logger := h.toolLogger(ctx, "evaluate_position")

	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	fen, err := stringArg(args, "fen")
	if err != nil {
		return nil, err
	}

	fenOption, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	pos := chess.NewGame(fenOption).Position()

	depth := intArg(args, "depth", h.config.Engine.Depth)

	eng, err := h.supervisor.Acquire(ctx)
	if err != nil {
		logger.Error("Engine unavailable", "error", err)
		return nil, err
	}

	eval, err := eng.Evaluate(ctx, pos, depth)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("# Position Evaluation\n\n")
	if eval.Mate != nil {
		sb.WriteString(fmt.Sprintf("- Mate in %d\n", *eval.Mate))
	}
	sb.WriteString(fmt.Sprintf("- Score: %+.2f\n", eval.Score))
	if eval.BestMoveSAN != "" {
		sb.WriteString(fmt.Sprintf("- Best move: %s (%s)\n", eval.BestMoveSAN, eval.BestMove))
	}
	sb.WriteString(fmt.Sprintf("- Eval bar: %.1f%% white\n", analysis.BarPercent(eval.Score)))
	sb.WriteString(fmt.Sprintf("- Graph height: %.1f\n", analysis.GraphHeight(eval.Score)))

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleEngineStatus handles the engine_status tool.
func (h *ToolsHandler) HandleEngineStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.toolLogger(ctx, "engine_status")
	logger.Debug("Reporting engine status")

	eng := h.supervisor.GetEngine()

	status := map[string]interface{}{
		"running": eng.IsRunning(),
		"binary":  h.config.Engine.BinaryPath,
		"depth":   h.config.Engine.Depth,
	}

	if uci, ok := eng.(*engine.UCIEngine); ok {
		cacheStats := uci.CacheStats()
		status["cache"] = map[string]interface{}{
			"entries":  cacheStats.Entries,
			"hits":     cacheStats.Hits,
			"misses":   cacheStats.Misses,
			"hit_rate": cacheStats.HitRate,
		}
		status["state"] = uci.State().String()
	}

	status["rate_limits"] = h.limiter.GetStatus()

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to format status: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func orUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

// formatReview renders an analysis review as markdown.
func formatReview(white, black string, review *analysis.Review) string {
	var sb strings.Builder
	sb.WriteString("# Game Review\n\n")
	sb.WriteString(fmt.Sprintf("**%s** vs **%s**, depth %d\n\n", orUnknown(white), orUnknown(black), review.Depth))

	sb.WriteString("## Accuracy\n")
	sb.WriteString(fmt.Sprintf("- White: %.1f%%\n", review.WhiteAccuracy))
	sb.WriteString(fmt.Sprintf("- Black: %.1f%%\n", review.BlackAccuracy))

	for _, side := range []struct {
		name  string
		white bool
	}{{"White", true}, {"Black", false}} {
		counts := review.LabelCounts(side.white)
		if len(counts) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n## %s move quality\n", side.name))
		for _, label := range []analysis.Label{
			analysis.LabelBrilliant, analysis.LabelGreat, analysis.LabelBest,
			analysis.LabelGood, analysis.LabelInaccuracy, analysis.LabelMistake,
			analysis.LabelBlunder,
		} {
			if n := counts[label.String()]; n > 0 {
				sb.WriteString(fmt.Sprintf("- %s: %d\n", label.String(), n))
			}
		}
	}

	var worst []analysis.MoveReview
	for _, move := range review.Moves {
		if move.Classification.Label == analysis.LabelMistake || move.Classification.Label == analysis.LabelBlunder {
			worst = append(worst, move)
		}
	}
	if len(worst) > 0 {
		sb.WriteString("\n## Key mistakes\n")
		for _, move := range worst {
			mover := "White"
			if !move.WhiteMoved {
				mover = "Black"
			}
			sb.WriteString(fmt.Sprintf("- Ply %d (%s): %s%s, eval %+.2f -> %+.2f",
				move.Ply+1, mover, move.SAN, move.Classification.Symbol, move.Before, move.After))
			if move.BestMove != "" && move.BestMove != move.SAN {
				sb.WriteString(fmt.Sprintf(", better was %s", move.BestMove))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
