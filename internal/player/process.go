package player

import (
	"context"

	"github.com/seantiz/quinttest/internal/board"
	"github.com/seantiz/quinttest/internal/clock"
)

// Launcher starts engine processes.
type Launcher interface {
	// Launch starts a process for p that is ready to play a new game.
	Launch(ctx context.Context, p Player) (Process, error)
}

// Process is a running engine.
type Process interface {
	// RequestMove asks the engine for its move in the position reached by
	// the moves played on b, searching within limit. The context carries the
	// deadline for the answer.
	RequestMove(ctx context.Context, b board.Board, limit clock.Limit) (string, error)

	// Close terminates the process. It is safe to call more than once.
	Close() error
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, p Player) (Process, error)

// Launch calls f(ctx, p).
func (f LauncherFunc) Launch(ctx context.Context, p Player) (Process, error) {
	return f(ctx, p)
}
