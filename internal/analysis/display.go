package analysis

import "github.com/pgnview/pgnview/internal/engine"

// Display mapping constants. The bar and the graph are scaled
// independently but share the same evaluation clamp, so a position never
// looks maxed out on one and moderate on the other.
const (
	// barPercentPerPawn converts pawns of advantage into percentage
	// points of white bar fill around the 50% midpoint.
	barPercentPerPawn = 3.0

	// graphUnitsPerPawn converts pawns of advantage into graph ordinate
	// units above or below the zero line.
	graphUnitsPerPawn = 4.0

	barMinPercent = 5.0
	barMaxPercent = 95.0
)

// BarPercent maps an evaluation to White's share of the evaluation bar.
// The result stays inside [5, 95] so both sides of the bar remain visible
// even in completely won positions.
func BarPercent(eval float64) float64 {
	percent := 50.0 + clampEval(eval)*barPercentPerPawn
	if percent < barMinPercent {
		return barMinPercent
	}
	if percent > barMaxPercent {
		return barMaxPercent
	}
	return percent
}

// GraphHeight maps an evaluation to a signed graph ordinate. Zero means a
// balanced position; positive favors White.
func GraphHeight(eval float64) float64 {
	return clampEval(eval) * graphUnitsPerPawn
}

func clampEval(eval float64) float64 {
	if eval > engine.EvalCap {
		return engine.EvalCap
	}
	if eval < -engine.EvalCap {
		return -engine.EvalCap
	}
	return eval
}
