package analysis

// Label grades a single played move against the engine's expectation.
type Label int

const (
	LabelBrilliant Label = iota
	LabelGreat
	LabelBest
	LabelGood
	LabelInaccuracy
	LabelMistake
	LabelBlunder
)

func (l Label) String() string {
	switch l {
	case LabelBrilliant:
		return "Brilliant"
	case LabelGreat:
		return "Great"
	case LabelBest:
		return "Best"
	case LabelGood:
		return "Good"
	case LabelInaccuracy:
		return "Inaccuracy"
	case LabelMistake:
		return "Mistake"
	case LabelBlunder:
		return "Blunder"
	default:
		return "Unknown"
	}
}

// Symbol returns the annotation glyph for the label. Best and Good carry
// no glyph.
func (l Label) Symbol() string {
	switch l {
	case LabelBrilliant:
		return "!!"
	case LabelGreat:
		return "!"
	case LabelInaccuracy:
		return "?!"
	case LabelMistake:
		return "?"
	case LabelBlunder:
		return "??"
	default:
		return ""
	}
}

// MoveClassification pairs a label with its annotation glyph.
type MoveClassification struct {
	Label  Label  `json:"label"`
	Symbol string `json:"symbol"`
}

// Loss computes the evaluation lost by the mover: the stored sequence is
// White-relative, so both evaluations are negated when Black moved.
// Positive means the position got worse for the mover after their own
// move. Negative losses happen when a move punishes an earlier engine
// misjudgment, or from depth noise between two independent searches.
func Loss(before, after float64, whiteMoved bool) float64 {
	if !whiteMoved {
		before, after = -before, -after
	}
	return before - after
}

// Classify grades a move from the evaluations before and after it.
// Thresholds are checked in order, first match wins. They are a fixed
// heuristic on evaluation loss alone; no sacrifice or only-move detection
// goes into Brilliant and Great.
func Classify(before, after float64, whiteMoved bool) MoveClassification {
	loss := Loss(before, after, whiteMoved)

	var label Label
	switch {
	case loss < -1.5:
		label = LabelBrilliant
	case loss < -0.5:
		label = LabelGreat
	case loss <= 0.1:
		label = LabelBest
	case loss <= 0.3:
		label = LabelGood
	case loss <= 0.7:
		label = LabelInaccuracy
	case loss <= 1.5:
		label = LabelMistake
	default:
		label = LabelBlunder
	}

	return MoveClassification{Label: label, Symbol: label.Symbol()}
}
