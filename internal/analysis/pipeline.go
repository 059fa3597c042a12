// Package analysis turns a game's position sequence into evaluations,
// per-move quality labels and per-side accuracy scores.
package analysis

import (
	"context"
	"fmt"

	"github.com/notnil/chess"

	"github.com/pgnview/pgnview/internal/engine"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/metrics"
)

// Evaluator scores a single position. Satisfied by engine.EngineInterface.
type Evaluator interface {
	Evaluate(ctx context.Context, pos *chess.Position, depth int) (*engine.Evaluation, error)
}

// ProgressFunc receives the zero-based index of the position about to be
// searched and the total count, before each search starts.
type ProgressFunc func(index, total int)

// Pipeline drives an evaluator across an ordered position sequence,
// strictly sequentially. One engine session handles one search at a time,
// so there is nothing to parallelize here.
type Pipeline struct {
	evaluator Evaluator
	depth     int
	logger    logging.ContextLogger
	prom      *metrics.PrometheusCollector
}

// NewPipeline creates an analysis pipeline searching at the given depth.
func NewPipeline(evaluator Evaluator, depth int, logger logging.ContextLogger) *Pipeline {
	return &Pipeline{
		evaluator: evaluator,
		depth:     depth,
		logger:    logger,
		prom:      metrics.NewPrometheusCollector(),
	}
}

// Run evaluates every position in order. Cancellation is checked between
// positions; any evaluator failure aborts the whole run with no partial
// results. The returned sequence is aligned with positions (one entry per
// position, move count + 1 for a full game).
func (p *Pipeline) Run(ctx context.Context, positions []*chess.Position, onProgress ProgressFunc) ([]*engine.Evaluation, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions to analyze", ErrAnalysisFailed)
	}

	total := len(positions)
	evals := make([]*engine.Evaluation, 0, total)

	for i, pos := range positions {
		if err := ctx.Err(); err != nil {
			p.prom.RecordAnalysisRun(true)
			return nil, fmt.Errorf("%w: cancelled before position %d of %d: %v", ErrAnalysisFailed, i+1, total, err)
		}

		if onProgress != nil {
			onProgress(i, total)
		}

		eval, err := p.evaluator.Evaluate(ctx, pos, p.depth)
		if err != nil {
			p.prom.RecordAnalysisRun(true)
			return nil, fmt.Errorf("%w: position %d of %d: %v", ErrAnalysisFailed, i+1, total, err)
		}
		evals = append(evals, eval)
	}

	p.prom.RecordAnalysisRun(false)
	p.logger.Info("Analysis run complete", "positions", total, "depth", p.depth)
	return evals, nil
}
