package analysis

import "math"

// Empirical accuracy curve constants. Fixed values reproduced exactly for
// numeric compatibility with existing accuracy figures.
const (
	accuracyScale  = 103.1668
	accuracyDecay  = 0.04354
	accuracyOffset = 3.1668
)

// Accuracy converts a side's per-move losses (in pawns) into a 0-100
// score. Losses are clipped at zero before averaging: an improvement
// never raises accuracy above 100 nor offsets later mistakes. A side
// that made no moves scores 100 by definition.
func Accuracy(losses []float64) float64 {
	if len(losses) == 0 {
		return 100.0
	}

	sum := 0.0
	for _, loss := range losses {
		if loss > 0 {
			sum += loss
		}
	}

	avgLossCentipawns := sum / float64(len(losses)) * 100.0
	accuracy := accuracyScale*math.Exp(-accuracyDecay*avgLossCentipawns) - accuracyOffset

	if accuracy > 100 {
		return 100
	}
	if accuracy < 0 {
		return 0
	}
	return accuracy
}
