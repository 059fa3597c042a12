package analysis

import (
	"context"
	"fmt"

	"github.com/pgnview/pgnview/internal/engine"
	"github.com/pgnview/pgnview/internal/game"
)

// MoveReview is the full verdict on one played move.
type MoveReview struct {
	Ply            int                `json:"ply"`
	SAN            string             `json:"san"`
	UCI            string             `json:"uci"`
	WhiteMoved     bool               `json:"whiteMoved"`
	Before         float64            `json:"before"`
	After          float64            `json:"after"`
	Loss           float64            `json:"loss"`
	Classification MoveClassification `json:"classification"`
	// BestMove is the engine's recommendation in the position before the
	// move, in SAN. Empty when the engine reported none.
	BestMove string `json:"bestMove,omitempty"`
}

// Review is the complete analysis of one game: the evaluation sequence,
// one verdict per move, and per-side accuracy. Immutable once built;
// replaced wholesale by the next analysis.
type Review struct {
	Depth         int                  `json:"depth"`
	Evaluations   []*engine.Evaluation `json:"evaluations"`
	Moves         []MoveReview         `json:"moves"`
	WhiteAccuracy float64              `json:"whiteAccuracy"`
	BlackAccuracy float64              `json:"blackAccuracy"`
}

// BuildReview derives per-move verdicts and accuracy from an evaluation
// sequence aligned with the game's positions.
func BuildReview(g *game.Game, evals []*engine.Evaluation, depth int) (*Review, error) {
	if len(evals) != g.MoveCount()+1 {
		return nil, fmt.Errorf("%w: %d evaluations for %d moves", ErrAnalysisFailed, len(evals), g.MoveCount())
	}

	review := &Review{
		Depth:       depth,
		Evaluations: evals,
		Moves:       make([]MoveReview, 0, g.MoveCount()),
	}

	// The mover per ply comes from the position itself, so games loaded
	// from a position with Black to move attribute losses correctly.
	var whiteLosses, blackLosses []float64

	for ply := 0; ply < g.MoveCount(); ply++ {
		whiteMoved := g.WhiteMoved(ply)
		before := evals[ply].Score
		after := evals[ply+1].Score
		loss := Loss(before, after, whiteMoved)

		review.Moves = append(review.Moves, MoveReview{
			Ply:            ply,
			SAN:            g.SAN(ply),
			UCI:            g.UCI(ply),
			WhiteMoved:     whiteMoved,
			Before:         before,
			After:          after,
			Loss:           loss,
			Classification: Classify(before, after, whiteMoved),
			BestMove:       evals[ply].BestMoveSAN,
		})

		if loss < 0 {
			loss = 0
		}
		if whiteMoved {
			whiteLosses = append(whiteLosses, loss)
		} else {
			blackLosses = append(blackLosses, loss)
		}
	}

	review.WhiteAccuracy = Accuracy(whiteLosses)
	review.BlackAccuracy = Accuracy(blackLosses)

	return review, nil
}

// Analyze runs the full pipeline over a loaded game and builds its review.
func (p *Pipeline) Analyze(ctx context.Context, g *game.Game, onProgress ProgressFunc) (*Review, error) {
	evals, err := p.Run(ctx, g.Positions(), onProgress)
	if err != nil {
		return nil, err
	}
	return BuildReview(g, evals, p.depth)
}

// LabelCounts tallies classification labels for one side of a review.
func (r *Review) LabelCounts(white bool) map[string]int {
	counts := make(map[string]int)
	for _, move := range r.Moves {
		if move.WhiteMoved == white {
			counts[move.Classification.Label.String()]++
		}
	}
	return counts
}
