package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/model"
	"github.com/seantiz/quinttest/internal/player"
	"github.com/seantiz/quinttest/internal/stats"
	"github.com/seantiz/quinttest/internal/store"
)

// ErrNotRunning is returned when cancelling a match that already finished.
var ErrNotRunning = errors.New("match is not running")

// Request describes a match submitted through the API.
type Request struct {
	PlayerA     string `json:"player_a"`
	PlayerB     string `json:"player_b"`
	TimeControl string `json:"time_control"`
	Games       int    `json:"games"`
	Concurrency int    `json:"concurrency,omitempty"`
	StopOnError bool   `json:"stop_on_error,omitempty"`
}

// GameMessage is the payload of a "game" event.
type GameMessage struct {
	Number    int    `json:"number"`
	White     string `json:"white"`
	Black     string `json:"black"`
	Result    string `json:"result"`
	Reason    string `json:"reason,omitempty"`
	Completed int    `json:"completed"`
	Score     string `json:"score"`
	WinsA     int    `json:"wins_a"`
	WinsB     int    `json:"wins_b"`
	Draws     int    `json:"draws"`
}

// ErrorMessage is the payload of an "error" event.
type ErrorMessage struct {
	Number  int    `json:"number"`
	Message string `json:"message"`
}

// Manager runs matches asynchronously, persisting every game and the live
// score, and streams progress through its Broker.
type Manager struct {
	store          store.Store
	registry       *player.Registry
	scheduler      *Scheduler
	logger         *slog.Logger
	broker         *Broker
	maxConcurrency int

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager. Requests asking for more than maxConcurrency
// workers are rejected; a request without a concurrency gets the largest
// worker count its games allow, capped at maxConcurrency.
func NewManager(s store.Store, reg *player.Registry, launcher player.Launcher, logger *slog.Logger, maxConcurrency int, opts ...Option) *Manager {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	opts = append([]Option{WithLogger(logger)}, opts...)
	return &Manager{
		store:          s,
		registry:       reg,
		scheduler:      NewScheduler(launcher, opts...),
		logger:         logger,
		broker:         NewBroker(),
		maxConcurrency: maxConcurrency,
		running:        make(map[string]context.CancelFunc),
	}
}

// Broker returns the broker used for SSE subscriptions.
func (m *Manager) Broker() *Broker {
	return m.broker
}

// Config resolves and validates a request without starting anything.
func (m *Manager) Config(req Request) (Config, error) {
	a, err := m.registry.Resolve(req.PlayerA)
	if err != nil {
		return Config{}, fmt.Errorf("resolve player_a: %w", err)
	}
	b, err := m.registry.Resolve(req.PlayerB)
	if err != nil {
		return Config{}, fmt.Errorf("resolve player_b: %w", err)
	}
	tc, err := clock.Parse(req.TimeControl)
	if err != nil {
		return Config{}, err
	}

	concurrency := req.Concurrency
	if concurrency == 0 {
		concurrency = min(m.maxConcurrency, max(1, (req.Games+1)/2))
	}
	if concurrency > m.maxConcurrency {
		return Config{}, fmt.Errorf("%w: concurrency %d exceeds the limit of %d", ErrInvalidConfig, concurrency, m.maxConcurrency)
	}

	cfg := Config{
		PlayerA:     a,
		PlayerB:     b,
		TimeControl: tc,
		Games:       req.Games,
		Concurrency: concurrency,
		StopOnError: req.StopOnError,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if _, err := SplitQuotas(cfg.Games, cfg.Concurrency); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Submit validates req, stores a pending match and starts it in the
// background. The returned match is a copy of the stored row.
func (m *Manager) Submit(ctx context.Context, req Request) (*model.Match, error) {
	cfg, err := m.Config(req)
	if err != nil {
		return nil, err
	}

	rec := &model.Match{
		ID:          model.NewID(),
		Status:      model.StatusPending,
		PlayerA:     cfg.PlayerA.FullName(),
		PlayerB:     cfg.PlayerB.FullName(),
		TimeControl: cfg.TimeControl.String(),
		Games:       cfg.Games,
		Concurrency: cfg.Concurrency,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.store.CreateMatch(ctx, rec); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.running[rec.ID] = cancel
	m.mu.Unlock()

	id := rec.ID
	m.wg.Go(func() {
		defer cancel()
		m.execute(runCtx, id, cfg)
	})

	out := *rec
	return &out, nil
}

// Cancel stops a running match. Finished games stay counted.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	cancel, ok := m.running[id]
	m.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	if _, err := m.store.GetMatch(ctx, id); err != nil {
		return err
	}
	return ErrNotRunning
}

// Running returns the number of matches in progress.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}

// Wait blocks until all in-flight matches finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown cancels every running match and waits for them to be recorded,
// or for ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, cancel := range m.running {
		cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs the match lifecycle: pending→running→completed/cancelled/failed.
func (m *Manager) execute(ctx context.Context, id string, cfg Config) {
	defer m.broker.Close(id)
	defer func() {
		m.mu.Lock()
		delete(m.running, id)
		m.mu.Unlock()
	}()

	logger := m.logger.With("match_id", id)

	if err := m.store.UpdateMatchStatus(context.Background(), id, model.StatusRunning); err != nil {
		logger.Error("failed to transition to running", "error", err)
		m.finish(logger, &model.Match{ID: id, Status: model.StatusFailed, Error: fmt.Sprintf("failed to start: %v", err)})
		return
	}
	start := time.Now().UTC()

	sink := &storeSink{matchID: id, cfg: cfg, store: m.store, broker: m.broker, logger: logger}
	agg := NewAggregator(cfg.Games + cfg.Concurrency)
	result, err := m.scheduler.Run(ctx, cfg, agg, sink)
	if err != nil {
		m.finish(logger, &model.Match{ID: id, Status: model.StatusFailed, StartedAt: &start, Error: err.Error()})
		return
	}

	rec := &model.Match{
		ID:        id,
		Status:    model.StatusCompleted,
		WinsA:     result.Counters.WinsA,
		WinsB:     result.Counters.WinsB,
		Draws:     result.Counters.Draws,
		Errors:    len(result.Errors),
		StartedAt: &start,
	}
	if result.Cancelled {
		rec.Status = model.StatusCancelled
	}
	if len(result.Errors) > 0 && cfg.StopOnError {
		rec.Status = model.StatusFailed
		rec.Error = result.Errors[0].Error()
	}
	rec.Elo = finite(result.Elo())
	rec.LOS = finite(result.LOS())

	m.finish(logger, rec)
}

func (m *Manager) finish(logger *slog.Logger, rec *model.Match) {
	now := time.Now().UTC()
	rec.FinishedAt = &now
	matchesTotal.WithLabelValues(rec.Status).Inc()

	if err := m.store.FinishMatch(context.Background(), rec); err != nil {
		logger.Error("failed to record finished match", "error", err)
		return
	}
	if final, err := m.store.GetMatch(context.Background(), rec.ID); err == nil {
		if data, err := json.Marshal(final); err == nil {
			m.broker.Publish(rec.ID, Message{Event: "result", Data: string(data)})
		}
	}
	logger.Info("match recorded", "status", rec.Status, "score", stats.Score(rec.WinsA, rec.WinsB, rec.Draws))
}

// storeSink persists scheduler progress and republishes it on the broker.
type storeSink struct {
	matchID string
	cfg     Config
	store   store.Store
	broker  *Broker
	logger  *slog.Logger

	counters Counters
	errors   int
}

func (s *storeSink) colours(g Game) (white, black string) {
	a, b := s.cfg.PlayerA.FullName(), s.cfg.PlayerB.FullName()
	if g.AIsWhite {
		return a, b
	}
	return b, a
}

func (s *storeSink) GameCompleted(p Progress) {
	white, black := s.colours(p.Game)
	result := p.Outcome.PGNResult(p.Game.AIsWhite)
	s.insert(p.Game, p.Outcome, result, "")

	// Events from different workers may arrive out of order.
	s.counters.WinsA = max(s.counters.WinsA, p.Counters.WinsA)
	s.counters.WinsB = max(s.counters.WinsB, p.Counters.WinsB)
	s.counters.Draws = max(s.counters.Draws, p.Counters.Draws)
	s.updateScore()

	s.publish("game", GameMessage{
		Number:    p.Game.Number,
		White:     white,
		Black:     black,
		Result:    result,
		Reason:    p.Outcome.Reason,
		Completed: p.Completed,
		Score:     p.Score,
		WinsA:     p.Counters.WinsA,
		WinsB:     p.Counters.WinsB,
		Draws:     p.Counters.Draws,
	})
}

func (s *storeSink) GameError(f Failure) {
	s.errors++
	o := Outcome{Kind: OutcomeError, Reason: "error", Err: f.Err}
	if f.Err != nil {
		o.Moves = f.Err.Moves
	}
	s.insert(f.Game, o, model.ResultUnfinished, f.Message)
	s.updateScore()

	s.publish("error", ErrorMessage{Number: f.Game.Number, Message: f.Message})
}

func (s *storeSink) insert(g Game, o Outcome, result, errMsg string) {
	white, black := s.colours(g)
	rec := &model.Game{
		ID:         model.NewID(),
		MatchID:    s.matchID,
		Number:     g.Number,
		White:      white,
		Black:      black,
		Result:     result,
		Reason:     o.Reason,
		Error:      errMsg,
		Moves:      o.Moves,
		DurationMS: int(o.Elapsed.Milliseconds()),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertGame(context.Background(), rec); err != nil {
		s.logger.Error("failed to persist game", "game", g.Number, "error", err)
	}
}

func (s *storeSink) updateScore() {
	score := store.Score{WinsA: s.counters.WinsA, WinsB: s.counters.WinsB, Draws: s.counters.Draws, Errors: s.errors}
	if err := s.store.UpdateMatchScore(context.Background(), s.matchID, score); err != nil {
		s.logger.Error("failed to update score", "error", err)
	}
}

func (s *storeSink) publish(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode event", "event", event, "error", err)
		return
	}
	s.broker.Publish(s.matchID, Message{Event: event, Data: string(data)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
