// Package game wraps PGN parsing into an ordered, immutable position
// sequence for the viewer and the analysis pipeline.
package game

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Game is a parsed game record: N moves and N+1 positions, including the
// initial position before any move. Immutable once loaded.
type Game struct {
	inner     *chess.Game
	positions []*chess.Position
	moves     []*chess.Move
	san       []string
	uci       []string
}

// Load parses a PGN string.
func Load(pgn string) (*Game, error) {
	if strings.TrimSpace(pgn) == "" {
		return nil, fmt.Errorf("empty PGN")
	}

	inner := chess.NewGame()
	if err := inner.UnmarshalText([]byte(pgn)); err != nil {
		return nil, fmt.Errorf("failed to parse PGN: %w", err)
	}

	g := &Game{
		inner:     inner,
		positions: inner.Positions(),
		moves:     inner.Moves(),
	}

	g.san = make([]string, len(g.moves))
	g.uci = make([]string, len(g.moves))
	for i, move := range g.moves {
		pos := g.positions[i]
		g.san[i] = chess.AlgebraicNotation{}.Encode(pos, move)
		g.uci[i] = chess.UCINotation{}.Encode(pos, move)
	}

	return g, nil
}

// MoveCount returns the number of moves (plies) in the game.
func (g *Game) MoveCount() int {
	return len(g.moves)
}

// Positions returns the position sequence, length MoveCount()+1.
func (g *Game) Positions() []*chess.Position {
	return g.positions
}

// Position returns the position after the given number of plies.
func (g *Game) Position(ply int) (*chess.Position, error) {
	if ply < 0 || ply >= len(g.positions) {
		return nil, fmt.Errorf("ply %d out of range [0, %d]", ply, len(g.positions)-1)
	}
	return g.positions[ply], nil
}

// SAN returns the move at the given ply in standard algebraic notation.
func (g *Game) SAN(ply int) string {
	if ply < 0 || ply >= len(g.san) {
		return ""
	}
	return g.san[ply]
}

// UCI returns the move at the given ply in coordinate notation.
func (g *Game) UCI(ply int) string {
	if ply < 0 || ply >= len(g.uci) {
		return ""
	}
	return g.uci[ply]
}

// WhiteMoved reports whether White played the move at the given ply.
func (g *Game) WhiteMoved(ply int) bool {
	if ply >= 0 && ply < len(g.positions) {
		return g.positions[ply].Turn() == chess.White
	}
	return ply%2 == 0
}

// Header returns a PGN tag value, or "" when absent.
func (g *Game) Header(key string) string {
	if tag := g.inner.GetTagPair(key); tag != nil {
		return tag.Value
	}
	return ""
}

// Headers returns all PGN tag pairs.
func (g *Game) Headers() map[string]string {
	headers := make(map[string]string)
	for _, tag := range g.inner.TagPairs() {
		headers[tag.Key] = tag.Value
	}
	return headers
}

// Result returns the PGN result tag ("1-0", "0-1", "1/2-1/2" or "*").
func (g *Game) Result() string {
	if result := g.Header("Result"); result != "" {
		return result
	}
	return "*"
}

// Describe renders a position's state for the status panel.
func Describe(pos *chess.Position) string {
	switch pos.Status() {
	case chess.Checkmate:
		if pos.Turn() == chess.White {
			return "Checkmate, Black wins"
		}
		return "Checkmate, White wins"
	case chess.Stalemate:
		return "Stalemate"
	}
	if pos.Turn() == chess.White {
		return "White to move"
	}
	return "Black to move"
}
