package board

import (
	"fmt"
	"strings"

	chess "github.com/IlikeChooros/dragontoothmg"
)

// MaxPlies is the game length after which a chess game is adjudicated a draw.
const MaxPlies = 400

// Compile-time interface satisfaction check.
var _ Board = (*Chess)(nil)

// Chess is a standard chess Board backed by dragontoothmg.
type Chess struct {
	board    *chess.Board
	legal    []chess.Move
	history  []string
	maxPlies int
}

// NewChess returns a chess board in the starting position.
func NewChess() *Chess {
	c := &Chess{maxPlies: MaxPlies}
	c.Reset()
	return c
}

// NewChessFactory returns a Factory producing chess boards that are drawn
// after maxPlies half-moves. A non-positive value uses MaxPlies.
func NewChessFactory(maxPlies int) Factory {
	if maxPlies <= 0 {
		maxPlies = MaxPlies
	}
	return func() Board {
		c := NewChess()
		c.maxPlies = maxPlies
		return c
	}
}

func (c *Chess) Reset() {
	c.board = chess.NewBoard()
	c.legal = c.board.GenerateLegalMoves()
	c.history = c.history[:0]
}

func (c *Chess) Apply(move string) error {
	move = strings.TrimSpace(move)
	for _, m := range c.legal {
		if m.String() == move {
			c.board.Make(m)
			c.history = append(c.history, move)
			c.legal = c.board.GenerateLegalMoves()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrIllegalMove, move)
}

func (c *Chess) SideToMove() Side {
	if c.board.Wtomove {
		return White
	}
	return Black
}

func (c *Chess) Outcome() (Result, bool) {
	if c.board.IsTerminated(len(c.legal)) {
		if c.board.Termination() == chess.TerminationCheckmate {
			// The side to move has been mated.
			return Result{Winner: c.SideToMove().Other(), Reason: "checkmate"}, true
		}
		if len(c.legal) == 0 {
			return Result{Draw: true, Reason: "stalemate"}, true
		}
		return Result{Draw: true, Reason: "draw by rule"}, true
	}
	if len(c.history) >= c.maxPlies {
		return Result{Draw: true, Reason: "move limit"}, true
	}
	return Result{}, false
}

func (c *Chess) Moves() []string {
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}

// LegalMoves returns the legal moves of the current position in text form.
func (c *Chess) LegalMoves() []string {
	out := make([]string, len(c.legal))
	for i, m := range c.legal {
		out[i] = m.String()
	}
	return out
}
