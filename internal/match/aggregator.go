package match

import (
	"sync"
	"sync/atomic"

	"github.com/seantiz/quinttest/internal/stats"
)

// Side selects a player by listing order.
type Side int

const (
	SideA Side = iota
	SideB
)

// Counters is an immutable snapshot of a match score.
type Counters struct {
	WinsA int `json:"wins_a"`
	WinsB int `json:"wins_b"`
	Draws int `json:"draws"`
}

// Total returns the number of counted games.
func (c Counters) Total() int {
	return c.WinsA + c.WinsB + c.Draws
}

// Score formats the counters as "winsA - winsB - draws".
func (c Counters) Score() string {
	return stats.Score(c.WinsA, c.WinsB, c.Draws)
}

// EventKind distinguishes events published by workers.
type EventKind int

const (
	EventGameCompleted EventKind = iota + 1
	EventGameError
)

// Event is published by a worker after each finished or failed game.
type Event struct {
	Kind    EventKind
	Game    Game
	Outcome Outcome
	// Counters is the score right after this game was recorded.
	Counters Counters
	Message  string
}

// Aggregator is the state shared by the workers of one match: the score,
// the cancellation flag and the event queue. It is safe for concurrent use
// and none of its methods block or fail.
type Aggregator struct {
	mu       sync.Mutex
	counters Counters

	snapshot  atomic.Pointer[Counters]
	cancelled atomic.Bool

	// queue is unbounded; Drain hands it over and starts a fresh one.
	qmu   sync.Mutex
	queue []Event
}

// NewAggregator creates an aggregator. sizeHint preallocates room for that
// many queued events; the queue grows past it as needed.
func NewAggregator(sizeHint int) *Aggregator {
	a := &Aggregator{queue: make([]Event, 0, max(sizeHint, 0))}
	a.snapshot.Store(&Counters{})
	return a
}

// IncrementWin records a win for side and returns the new score.
func (a *Aggregator) IncrementWin(side Side) Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	if side == SideA {
		a.counters.WinsA++
	} else {
		a.counters.WinsB++
	}
	return a.publishLocked()
}

// IncrementDraw records a draw and returns the new score.
func (a *Aggregator) IncrementDraw() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters.Draws++
	return a.publishLocked()
}

func (a *Aggregator) publishLocked() Counters {
	c := a.counters
	a.snapshot.Store(&c)
	return c
}

// Snapshot returns the score as of the last recorded game without locking.
func (a *Aggregator) Snapshot() Counters {
	if c := a.snapshot.Load(); c != nil {
		return *c
	}
	return Counters{}
}

// RequestCancel sets the cancellation flag. It returns true only for the
// call that actually set it.
func (a *Aggregator) RequestCancel() bool {
	return a.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether cancellation was requested.
func (a *Aggregator) Cancelled() bool {
	return a.cancelled.Load()
}

// Publish queues e for the scheduler. Events are never dropped.
func (a *Aggregator) Publish(e Event) {
	a.qmu.Lock()
	a.queue = append(a.queue, e)
	a.qmu.Unlock()
}

// Drain returns all queued events in publish order without waiting. The
// result may be empty.
func (a *Aggregator) Drain() []Event {
	a.qmu.Lock()
	defer a.qmu.Unlock()
	if len(a.queue) == 0 {
		return nil
	}
	out := a.queue
	a.queue = nil
	return out
}
