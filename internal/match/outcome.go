package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/seantiz/quinttest/internal/model"
)

// OutcomeKind classifies how a game ended.
type OutcomeKind int

const (
	OutcomeWinA OutcomeKind = iota + 1
	OutcomeWinB
	OutcomeDraw
	// OutcomeAborted means the game was stopped by cancellation and is not counted.
	OutcomeAborted
	// OutcomeError means an engine failed; the game is not counted.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWinA:
		return "win_a"
	case OutcomeWinB:
		return "win_b"
	case OutcomeDraw:
		return "draw"
	case OutcomeAborted:
		return "aborted"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Game identifies one game of a match.
type Game struct {
	// Number is 1-based and unique within the match.
	Number   int
	Worker   int
	AIsWhite bool
}

// Outcome is the terminal result of one game.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Moves  []string
	Err    *GameError
	// Elapsed is the wall-clock length of the game.
	Elapsed time.Duration
}

// Completed reports whether the game reached a result that is counted.
func (o Outcome) Completed() bool {
	return o.Kind == OutcomeWinA || o.Kind == OutcomeWinB || o.Kind == OutcomeDraw
}

// PGNResult returns the result from white's point of view.
func (o Outcome) PGNResult(aIsWhite bool) string {
	switch o.Kind {
	case OutcomeDraw:
		return model.ResultDraw
	case OutcomeWinA:
		if aIsWhite {
			return model.ResultWhiteWins
		}
		return model.ResultBlackWins
	case OutcomeWinB:
		if aIsWhite {
			return model.ResultBlackWins
		}
		return model.ResultWhiteWins
	default:
		return model.ResultUnfinished
	}
}

// GameError describes an engine failure during a game.
type GameError struct {
	Engine  string
	Moves   []string
	Message string
}

func (e *GameError) Error() string {
	return fmt.Sprintf("error in engine %s after moves %q: %s", e.Engine, strings.Join(e.Moves, " "), e.Message)
}
