package match_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seantiz/quinttest/internal/board"
	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/match"
	"github.com/seantiz/quinttest/internal/player"
)

// Moves understood by scriptBoard.
const (
	moveMate    = "mate"
	moveDraw    = "draw"
	movePass    = "pass"
	moveIllegal = "illegal"
)

// scriptBoard is a Board whose game ends when a side plays "mate" (that side
// wins) or "draw". Any other move except "illegal" is accepted.
type scriptBoard struct {
	moves  []string
	result *board.Result
}

func newScriptBoard() board.Board { return &scriptBoard{} }

func (b *scriptBoard) Reset() {
	b.moves = nil
	b.result = nil
}

func (b *scriptBoard) Apply(move string) error {
	if move == moveIllegal {
		return fmt.Errorf("%w: %q", board.ErrIllegalMove, move)
	}
	side := b.SideToMove()
	b.moves = append(b.moves, move)
	switch move {
	case moveMate:
		b.result = &board.Result{Winner: side, Reason: "checkmate"}
	case moveDraw:
		b.result = &board.Result{Draw: true, Reason: "agreed"}
	}
	return nil
}

func (b *scriptBoard) SideToMove() board.Side {
	if len(b.moves)%2 == 0 {
		return board.White
	}
	return board.Black
}

func (b *scriptBoard) Outcome() (board.Result, bool) {
	if b.result == nil {
		return board.Result{}, false
	}
	return *b.result, true
}

func (b *scriptBoard) Moves() []string {
	return append([]string(nil), b.moves...)
}

// behaviour decides an engine's reply given the number of moves on the board.
type behaviour func(ctx context.Context, ply int) (string, error)

// always returns the same move every time.
func always(move string) behaviour {
	return func(context.Context, int) (string, error) { return move, nil }
}

// slow waits d (or until ctx ends) before answering move.
func slow(d time.Duration, move string) behaviour {
	return func(ctx context.Context, _ int) (string, error) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return move, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// failing always returns err.
func failing(err error) behaviour {
	return func(context.Context, int) (string, error) { return "", err }
}

// fakeLauncher starts in-memory processes whose replies come from a
// behaviour per player name. It records launches and closes.
type fakeLauncher struct {
	mu         sync.Mutex
	behaviours map[string]behaviour
	launchErr  map[string]error

	launches atomic.Int64
	calls    atomic.Int64
	closes   atomic.Int64
	active   atomic.Int64

	// When agg is set, the launch call numbered cancelAt requests
	// cancellation on it, and every call made while it is already
	// cancelled is counted in launchedCancelled.
	agg               *match.Aggregator
	cancelAt          int64
	launchedCancelled atomic.Int64
}

// cancelOnLaunch makes launch call n request cancellation on agg.
func (l *fakeLauncher) cancelOnLaunch(agg *match.Aggregator, n int64) *fakeLauncher {
	l.agg = agg
	l.cancelAt = n
	return l
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		behaviours: make(map[string]behaviour),
		launchErr:  make(map[string]error),
	}
}

func (l *fakeLauncher) set(name string, b behaviour) *fakeLauncher {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.behaviours[name] = b
	return l
}

func (l *fakeLauncher) failLaunch(name string, err error) *fakeLauncher {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launchErr[name] = err
	return l
}

func (l *fakeLauncher) Launch(_ context.Context, p player.Player) (player.Process, error) {
	l.mu.Lock()
	b, ok := l.behaviours[p.Name]
	lerr := l.launchErr[p.Name]
	l.mu.Unlock()

	n := l.calls.Add(1)
	if l.agg != nil {
		if l.agg.Cancelled() {
			l.launchedCancelled.Add(1)
		}
		if n == l.cancelAt {
			l.agg.RequestCancel()
		}
	}
	if lerr != nil {
		return nil, lerr
	}
	if !ok {
		return nil, errors.New("no behaviour for " + p.Name)
	}
	l.launches.Add(1)
	l.active.Add(1)
	return &fakeProcess{launcher: l, reply: b}, nil
}

type fakeProcess struct {
	launcher *fakeLauncher
	reply    behaviour
	once     sync.Once
}

func (p *fakeProcess) RequestMove(ctx context.Context, b board.Board, _ clock.Limit) (string, error) {
	return p.reply(ctx, len(b.Moves()))
}

func (p *fakeProcess) Close() error {
	p.once.Do(func() {
		p.launcher.closes.Add(1)
		p.launcher.active.Add(-1)
	})
	return nil
}

// recordingSink captures everything the scheduler reports.
type recordingSink struct {
	mu         sync.Mutex
	progress   []match.Progress
	failures   []match.Failure
	onProgress func(match.Progress)
}

func (s *recordingSink) GameCompleted(p match.Progress) {
	s.mu.Lock()
	s.progress = append(s.progress, p)
	hook := s.onProgress
	s.mu.Unlock()
	if hook != nil {
		hook(p)
	}
}

func (s *recordingSink) GameError(f match.Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}
