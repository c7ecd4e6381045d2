package match

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/quinttest/internal/board"
	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/player"
	"github.com/seantiz/quinttest/internal/stats"
)

// DefaultPollInterval is how often the scheduler drains worker events.
const DefaultPollInterval = 50 * time.Millisecond

// Progress is reported to a Sink after every completed game.
type Progress struct {
	Completed int
	Counters  Counters
	Score     string
	Game      Game
	Outcome   Outcome
}

// Failure is reported to a Sink after every game that ended in an engine error.
type Failure struct {
	Game    Game
	Err     *GameError
	Message string
}

// Sink receives live match progress. Calls come from the scheduler
// goroutine, one at a time.
type Sink interface {
	GameCompleted(p Progress)
	GameError(f Failure)
}

type nopSink struct{}

func (nopSink) GameCompleted(Progress) {}
func (nopSink) GameError(Failure)      {}

// FinalResult is the outcome of a whole match, built once every worker has
// returned.
type FinalResult struct {
	Counters  Counters
	Config    Config
	Errors    []*GameError
	Cancelled bool
}

// Elo returns the Elo difference of PlayerA over PlayerB.
func (r FinalResult) Elo() float64 {
	return stats.EloDifference(r.Counters.WinsA, r.Counters.WinsB, r.Counters.Draws)
}

// LOS returns the likelihood of superiority of PlayerA in percent.
func (r FinalResult) LOS() float64 {
	return stats.LOS(r.Counters.WinsA, r.Counters.WinsB)
}

// Report returns the printable summary of the match.
func (r FinalResult) Report() stats.Report {
	return stats.Report{
		PlayerA:     r.Config.PlayerA.FullName(),
		PlayerB:     r.Config.PlayerB.FullName(),
		TimeControl: r.Config.TimeControl.String(),
		WinsA:       r.Counters.WinsA,
		WinsB:       r.Counters.WinsB,
		Draws:       r.Counters.Draws,
		Errors:      len(r.Errors),
		Cancelled:   r.Cancelled,
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPollInterval sets how often events are drained.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithMoveGrace sets the slack added to every move budget.
func WithMoveGrace(d time.Duration) Option {
	return func(s *Scheduler) { s.grace = d }
}

// WithBoardFactory sets how boards are created for each game.
func WithBoardFactory(f board.Factory) Option {
	return func(s *Scheduler) { s.newBoard = f }
}

// WithClockOptions passes options to every game clock.
func WithClockOptions(opts ...clock.Option) Option {
	return func(s *Scheduler) { s.clockOpts = append(s.clockOpts, opts...) }
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSink sets the progress sink used by RunMatch.
func WithSink(sink Sink) Option {
	return func(s *Scheduler) { s.sink = sink }
}

// Scheduler distributes the games of a match over a worker pool.
type Scheduler struct {
	launcher     player.Launcher
	newBoard     board.Factory
	pollInterval time.Duration
	grace        time.Duration
	clockOpts    []clock.Option
	logger       *slog.Logger
	sink         Sink
}

// NewScheduler creates a scheduler that starts engines with launcher.
func NewScheduler(launcher player.Launcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		launcher:     launcher,
		newBoard:     board.NewChessFactory(0),
		pollInterval: DefaultPollInterval,
		grace:        DefaultMoveGrace,
		logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		sink:         nopSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays the match described by cfg and blocks until every worker has
// returned. Configuration errors are returned before any game starts.
// Cancelling ctx stops the match cooperatively: games in progress are
// abandoned, finished games stay counted, and the partial result is
// returned with Cancelled set and a nil error.
func (s *Scheduler) Run(ctx context.Context, cfg Config, agg *Aggregator, sink Sink) (FinalResult, error) {
	if err := cfg.Validate(); err != nil {
		return FinalResult{}, err
	}
	quotas, err := SplitQuotas(cfg.Games, cfg.Concurrency)
	if err != nil {
		return FinalResult{}, err
	}
	if agg == nil {
		agg = NewAggregator(cfg.Games + cfg.Concurrency)
	}
	if sink == nil {
		sink = nopSink{}
	}

	runner := NewRunner(cfg, s.launcher, s.newBoard, s.grace, agg.Cancelled, s.clockOpts...)

	s.logger.Info("match started",
		"player_a", cfg.PlayerA.FullName(),
		"player_b", cfg.PlayerB.FullName(),
		"time_control", cfg.TimeControl.String(),
		"games", cfg.Games,
		"workers", len(quotas),
	)

	var wg sync.WaitGroup
	first := 1
	for i, q := range quotas {
		w := &worker{
			id:          i,
			firstGame:   first,
			quota:       q,
			runner:      runner,
			agg:         agg,
			stopOnError: cfg.StopOnError,
			logger:      s.logger,
		}
		first += q
		wg.Go(func() { w.run(ctx) })
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	result := FinalResult{Config: cfg}
	completed := 0
	forward := func() {
		for _, e := range agg.Drain() {
			switch e.Kind {
			case EventGameCompleted:
				completed++
				sink.GameCompleted(Progress{
					Completed: completed,
					Counters:  e.Counters,
					Score:     e.Counters.Score(),
					Game:      e.Game,
					Outcome:   e.Outcome,
				})
			case EventGameError:
				result.Errors = append(result.Errors, e.Outcome.Err)
				sink.GameError(Failure{Game: e.Game, Err: e.Outcome.Err, Message: e.Message})
			}
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
loop:
	for {
		select {
		case <-ticker.C:
			forward()
		case <-ctxDone:
			if agg.RequestCancel() {
				s.logger.Info("match cancellation requested", "reason", context.Cause(ctx))
			}
			ctxDone = nil
		case <-done:
			break loop
		}
	}
	if ctx.Err() != nil {
		agg.RequestCancel()
	}
	forward()

	result.Counters = agg.Snapshot()
	result.Cancelled = agg.Cancelled()

	s.logger.Info("match finished",
		"score", result.Counters.Score(),
		"errors", len(result.Errors),
		"cancelled", result.Cancelled,
	)
	return result, nil
}

// RunMatch plays cfg to completion with a fresh aggregator. It is the entry
// point for command-line and API controllers.
func RunMatch(ctx context.Context, cfg Config, launcher player.Launcher, opts ...Option) (FinalResult, error) {
	s := NewScheduler(launcher, opts...)
	agg := NewAggregator(cfg.Games + cfg.Concurrency)
	return s.Run(ctx, cfg, agg, s.sink)
}
