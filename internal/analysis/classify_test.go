package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		before float64
		after  float64
		label  Label
		symbol string
	}{
		{"brilliant below -1.5", 0.0, 1.6, LabelBrilliant, "!!"},
		{"great at -1.0", 0.0, 1.0, LabelGreat, "!"},
		{"great just under -0.5", 0.0, 0.51, LabelGreat, "!"},
		{"best at -0.5 exactly", 0.0, 0.5, LabelBest, ""},
		{"best at zero loss", 0.3, 0.3, LabelBest, ""},
		{"best at 0.1", 0.3, 0.2, LabelBest, ""},
		{"good at 0.3", 0.5, 0.2, LabelGood, ""},
		{"inaccuracy at 0.5", 0.5, 0.0, LabelInaccuracy, "?!"},
		{"mistake at 1.0", 1.0, 0.0, LabelMistake, "?"},
		{"mistake at 1.5 exactly", 1.5, 0.0, LabelMistake, "?"},
		{"blunder above 1.5", 1.51, 0.0, LabelBlunder, "??"},
		{"blunder from winning to losing", 1.0, -1.0, LabelBlunder, "??"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.before, tt.after, true)
			assert.Equal(t, tt.label, c.Label)
			assert.Equal(t, tt.symbol, c.Symbol)
		})
	}
}

func TestClassify_EqualEvalsIsBest(t *testing.T) {
	for _, eval := range []float64{-15, -3.7, 0, 0.3, 15} {
		for _, whiteMoved := range []bool{true, false} {
			c := Classify(eval, eval, whiteMoved)
			assert.Equal(t, LabelBest, c.Label)
			assert.Empty(t, c.Symbol)
		}
	}
}

func TestClassify_BlackPerspective(t *testing.T) {
	// Black moving from -1.0 (good for Black) to +1.0 hands White two
	// pawns of advantage: a blunder for Black
	c := Classify(-1.0, 1.0, false)
	assert.Equal(t, LabelBlunder, c.Label)

	// The same stored swing is a great find when White played it
	c = Classify(-1.0, 1.0, true)
	assert.Equal(t, LabelBrilliant, c.Label)
}

func TestClassify_SymmetryLaw(t *testing.T) {
	// Negating both evaluations and flipping the mover must yield the
	// identical classification
	pairs := [][2]float64{
		{0.3, 0.3}, {1.0, -1.0}, {0.0, 0.6}, {-2.0, -1.2}, {15, -15}, {0.05, -0.05},
	}
	for _, p := range pairs {
		for _, whiteMoved := range []bool{true, false} {
			a := Classify(p[0], p[1], whiteMoved)
			b := Classify(-p[0], -p[1], !whiteMoved)
			assert.Equal(t, a, b, "before=%v after=%v white=%v", p[0], p[1], whiteMoved)
		}
	}
}

func TestLoss(t *testing.T) {
	assert.InDelta(t, 2.0, Loss(1.0, -1.0, true), 1e-9)
	assert.InDelta(t, -2.0, Loss(1.0, -1.0, false), 1e-9)
	assert.InDelta(t, 0.0, Loss(0.3, 0.3, true), 1e-9)
}

func TestLabelStrings(t *testing.T) {
	assert.Equal(t, "Brilliant", LabelBrilliant.String())
	assert.Equal(t, "Blunder", LabelBlunder.String())
	assert.Equal(t, "", LabelGood.Symbol())
	assert.Equal(t, "?!", LabelInaccuracy.Symbol())
}
