// Package board defines the game-rules collaborator of a match: a position
// that accepts moves in text form and reports when the game is over.
package board

import "errors"

// ErrIllegalMove is returned by Apply when the move is not legal in the
// current position.
var ErrIllegalMove = errors.New("illegal move")

// Side is the colour to move.
type Side int

const (
	White Side = iota
	Black
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// Result is the terminal state of a game from the board's point of view.
type Result struct {
	// Winner is valid only when Draw is false.
	Winner Side
	Draw   bool
	Reason string
}

// Board is a game position. Implementations are not safe for concurrent use;
// each game owns its own Board.
type Board interface {
	// Reset returns the board to the initial position and clears the history.
	Reset()
	// Apply plays move for the side to move. It returns an error wrapping
	// ErrIllegalMove if the move is not legal.
	Apply(move string) error
	// SideToMove reports whose turn it is.
	SideToMove() Side
	// Outcome reports the result once the game is over.
	Outcome() (Result, bool)
	// Moves returns the moves played so far, oldest first.
	Moves() []string
}

// Factory creates fresh boards, one per game.
type Factory func() Board
