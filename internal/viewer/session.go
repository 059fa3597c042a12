// Package viewer holds the interactive session state: the loaded game,
// the current ply, and the latest analysis review.
package viewer

import (
	"fmt"
	"sync"

	"github.com/notnil/chess"

	"github.com/pgnview/pgnview/internal/analysis"
	"github.com/pgnview/pgnview/internal/game"
	"github.com/pgnview/pgnview/internal/logging"
)

// Session is the application state behind the viewer. All mutation goes
// through its methods; the game and review it holds are immutable and
// replaced wholesale.
type Session struct {
	logger logging.ContextLogger

	mu     sync.RWMutex
	game   *game.Game
	ply    int
	review *analysis.Review
}

// NewSession creates an empty session.
func NewSession(logger logging.ContextLogger) *Session {
	return &Session{logger: logger}
}

// Load replaces the current game and discards any existing review, which
// belongs to the previous game's position sequence.
func (s *Session) Load(pgn string) (*game.Game, error) {
	g, err := game.Load(pgn)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.game = g
	s.ply = 0
	s.review = nil
	s.mu.Unlock()

	s.logger.Info("Game loaded",
		"white", g.Header("White"),
		"black", g.Header("Black"),
		"moves", g.MoveCount(),
	)
	return g, nil
}

// Game returns the loaded game, or nil.
func (s *Session) Game() *game.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

// Ply returns the current ply index.
func (s *Session) Ply() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ply
}

// CurrentPosition returns the position at the current ply.
func (s *Session) CurrentPosition() (*chess.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.game == nil {
		return nil, fmt.Errorf("no game loaded")
	}
	return s.game.Position(s.ply)
}

// First jumps to the initial position.
func (s *Session) First() int { return s.seek(func(int, int) int { return 0 }) }

// Last jumps to the final position.
func (s *Session) Last() int { return s.seek(func(_, max int) int { return max }) }

// Next advances one ply, stopping at the final position.
func (s *Session) Next() int { return s.seek(func(ply, _ int) int { return ply + 1 }) }

// Prev steps back one ply, stopping at the initial position.
func (s *Session) Prev() int { return s.seek(func(ply, _ int) int { return ply - 1 }) }

// Seek jumps to a specific ply, clamped to the valid range.
func (s *Session) Seek(ply int) int { return s.seek(func(int, int) int { return ply }) }

func (s *Session) seek(next func(ply, max int) int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil {
		return 0
	}

	max := s.game.MoveCount()
	ply := next(s.ply, max)
	if ply < 0 {
		ply = 0
	}
	if ply > max {
		ply = max
	}
	s.ply = ply
	return ply
}

// SetReview stores an analysis review for the loaded game. An existing
// review is retained until explicitly replaced here or discarded by Load.
func (s *Session) SetReview(review *analysis.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil {
		return fmt.Errorf("no game loaded")
	}
	if review != nil && len(review.Evaluations) != s.game.MoveCount()+1 {
		return fmt.Errorf("review does not match loaded game")
	}
	s.review = review
	return nil
}

// Review returns the stored review, or nil when the game has not been
// analyzed.
func (s *Session) Review() *analysis.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.review
}

// Status describes the current position for the status panel.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.game == nil {
		return "No game loaded"
	}
	pos, err := s.game.Position(s.ply)
	if err != nil {
		return "No game loaded"
	}
	return game.Describe(pos)
}
