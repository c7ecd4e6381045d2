package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/quinttest/internal/board"
	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/player"
)

// DefaultMoveGrace is added to each move budget before a request is treated
// as unanswered.
const DefaultMoveGrace = time.Second

const (
	reasonTimeForfeit = "time forfeit"
	reasonCancelled   = "cancelled"
)

// Runner plays single games between the two players of a match. It is safe
// to share between workers; all per-game state lives inside Play.
type Runner struct {
	playerA     player.Player
	playerB     player.Player
	tc          clock.TimeControl
	launcher    player.Launcher
	newBoard    board.Factory
	grace       time.Duration
	clockOpts   []clock.Option
	isCancelled func() bool
}

// NewRunner creates a runner for cfg. isCancelled is polled at game start
// and after every move; nil means never cancelled.
func NewRunner(cfg Config, launcher player.Launcher, newBoard board.Factory, grace time.Duration, isCancelled func() bool, clockOpts ...clock.Option) *Runner {
	if newBoard == nil {
		newBoard = board.NewChessFactory(0)
	}
	if isCancelled == nil {
		isCancelled = func() bool { return false }
	}
	return &Runner{
		playerA:     cfg.PlayerA,
		playerB:     cfg.PlayerB,
		tc:          cfg.TimeControl,
		launcher:    launcher,
		newBoard:    newBoard,
		grace:       grace,
		clockOpts:   clockOpts,
		isCancelled: isCancelled,
	}
}

// Play runs game g to its end. It never panics on engine misbehaviour and
// always closes the processes it launched.
func (r *Runner) Play(ctx context.Context, g Game) Outcome {
	white, black := r.playerA, r.playerB
	if !g.AIsWhite {
		white, black = black, white
	}

	procs := make(map[board.Side]player.Process, 2)
	players := map[board.Side]player.Player{board.White: white, board.Black: black}
	for _, side := range []board.Side{board.White, board.Black} {
		// Nothing is launched once cancellation has been requested.
		if r.stopped(ctx) {
			return Outcome{Kind: OutcomeAborted, Reason: reasonCancelled}
		}
		proc, err := r.launcher.Launch(ctx, players[side])
		if err != nil {
			if r.stopped(ctx) {
				return Outcome{Kind: OutcomeAborted, Reason: reasonCancelled}
			}
			return errorOutcome(players[side], nil, fmt.Errorf("launch: %w", err))
		}
		defer proc.Close()
		procs[side] = proc
	}

	b := r.newBoard()
	b.Reset()
	c := clock.New(r.tc, r.clockOpts...)

	for {
		side := b.SideToMove()
		mover := players[side]
		limit := c.Limit()

		moveCtx, cancel := context.WithTimeout(ctx, limit.Budget(side)+r.grace)
		c.Start()
		move, err := procs[side].RequestMove(moveCtx, b, limit)
		c.Stop(side)
		cancel()

		if err != nil {
			if r.stopped(ctx) {
				return Outcome{Kind: OutcomeAborted, Reason: reasonCancelled, Moves: b.Moves()}
			}
			if c.FlaggedSide(side) {
				return r.timeForfeit(g, side, b)
			}
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("no move within %v: %w", limit.Budget(side)+r.grace, err)
			}
			return errorOutcome(mover, b.Moves(), err)
		}

		if err := b.Apply(move); err != nil {
			return errorOutcome(mover, b.Moves(), err)
		}

		if res, over := b.Outcome(); over {
			return decided(g, res, b.Moves())
		}
		if c.FlaggedSide(side) {
			return r.timeForfeit(g, side, b)
		}
		if r.stopped(ctx) {
			return Outcome{Kind: OutcomeAborted, Reason: reasonCancelled, Moves: b.Moves()}
		}
	}
}

func (r *Runner) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || r.isCancelled()
}

// timeForfeit scores a loss for the side whose flag fell.
func (r *Runner) timeForfeit(g Game, loser board.Side, b board.Board) Outcome {
	return decided(g, board.Result{Winner: loser.Other(), Reason: reasonTimeForfeit}, b.Moves())
}

// decided maps a board result onto the players of g.
func decided(g Game, res board.Result, moves []string) Outcome {
	o := Outcome{Reason: res.Reason, Moves: moves}
	switch {
	case res.Draw:
		o.Kind = OutcomeDraw
	case (res.Winner == board.White) == g.AIsWhite:
		o.Kind = OutcomeWinA
	default:
		o.Kind = OutcomeWinB
	}
	return o
}

func errorOutcome(p player.Player, moves []string, err error) Outcome {
	return Outcome{
		Kind:   OutcomeError,
		Reason: "engine error",
		Moves:  moves,
		Err: &GameError{
			Engine:  p.FullName(),
			Moves:   moves,
			Message: err.Error(),
		},
	}
}
