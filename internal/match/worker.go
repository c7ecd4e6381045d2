package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// worker plays a fixed quota of games, alternating colours, and records
// every result in the shared aggregator.
type worker struct {
	id          int
	firstGame   int
	quota       int
	runner      *Runner
	agg         *Aggregator
	stopOnError bool
	logger      *slog.Logger
}

func (w *worker) run(ctx context.Context) {
	activeWorkers.Inc()
	defer activeWorkers.Dec()

	for i := 0; i < w.quota; i++ {
		if w.agg.Cancelled() || ctx.Err() != nil {
			return
		}

		g := Game{Number: w.firstGame + i, Worker: w.id, AIsWhite: i%2 == 0}
		start := time.Now()
		o := w.play(ctx, g)
		o.Elapsed = time.Since(start)
		gamesTotal.WithLabelValues(o.Kind.String()).Inc()

		switch o.Kind {
		case OutcomeWinA, OutcomeWinB, OutcomeDraw:
			gameDuration.Observe(o.Elapsed.Seconds())
			var c Counters
			switch o.Kind {
			case OutcomeWinA:
				c = w.agg.IncrementWin(SideA)
			case OutcomeWinB:
				c = w.agg.IncrementWin(SideB)
			default:
				c = w.agg.IncrementDraw()
			}
			w.agg.Publish(Event{Kind: EventGameCompleted, Game: g, Outcome: o, Counters: c})
			w.logger.Debug("game finished", "worker", w.id, "game", g.Number, "outcome", o.Kind.String(), "reason", o.Reason)

		case OutcomeAborted:
			return

		case OutcomeError:
			msg := o.Err.Error()
			w.agg.Publish(Event{Kind: EventGameError, Game: g, Outcome: o, Counters: w.agg.Snapshot(), Message: msg})
			w.logger.Warn("game failed", "worker", w.id, "game", g.Number, "error", msg)
			if w.stopOnError {
				w.agg.RequestCancel()
				return
			}
		}
	}
}

// play runs one game, converting a panic into an error outcome so a single
// faulty game cannot take the worker down.
func (w *worker) play(ctx context.Context, g Game) (o Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			o = Outcome{
				Kind:   OutcomeError,
				Reason: "panic",
				Err: &GameError{
					Engine:  "quinttest",
					Message: fmt.Sprintf("panic: %v", rec),
				},
			}
		}
	}()
	return w.runner.Play(ctx, g)
}
