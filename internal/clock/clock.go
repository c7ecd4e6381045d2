package clock

import (
	"time"

	"github.com/seantiz/quinttest/internal/board"
)

// Limit is the search budget handed to an engine for one move. In exact mode
// only MoveTime is set; in sudden-death mode the remaining time of both sides
// and the increment are set, mirroring what a UCI "go" command carries.
type Limit struct {
	MoveTime  time.Duration
	WhiteTime time.Duration
	BlackTime time.Duration
	Increment time.Duration
}

// Budget returns the longest time the given side may think under this limit.
func (l Limit) Budget(side board.Side) time.Duration {
	if l.MoveTime > 0 {
		return l.MoveTime
	}
	if side == board.White {
		return l.WhiteTime
	}
	return l.BlackTime
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the wall clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// Clock tracks the remaining budget of both sides during one game.
// It is not safe for concurrent use.
type Clock struct {
	tc        TimeControl
	remaining [2]time.Duration
	started   time.Time
	running   bool
	now       func() time.Time
}

// New creates a clock with both sides at the configured base time.
func New(tc TimeControl, opts ...Option) *Clock {
	c := &Clock{
		tc:  tc,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining[board.White] = tc.Base
	c.remaining[board.Black] = tc.Base
	return c
}

// TimeControl returns the control the clock was created with.
func (c *Clock) TimeControl() TimeControl {
	return c.tc
}

// Remaining returns the budget available to side for its next move. In exact
// mode this is always the fixed per-move time.
func (c *Clock) Remaining(side board.Side) time.Duration {
	if c.tc.IsExact() {
		return c.tc.Exact
	}
	return c.remaining[side]
}

// Limit returns the engine search limit for the next move.
func (c *Clock) Limit() Limit {
	if c.tc.IsExact() {
		return Limit{MoveTime: c.tc.Exact}
	}
	return Limit{
		WhiteTime: c.remaining[board.White],
		BlackTime: c.remaining[board.Black],
		Increment: c.tc.Increment,
	}
}

// Start begins timing the current move.
func (c *Clock) Start() {
	c.started = c.now()
	c.running = true
}

// Stop ends timing the current move and returns the elapsed time. In
// sudden-death mode the elapsed time is deducted from side and the increment
// is added back. Stop without a matching Start returns zero.
func (c *Clock) Stop(side board.Side) time.Duration {
	if !c.running {
		return 0
	}
	elapsed := c.now().Sub(c.started)
	c.running = false

	if !c.tc.IsExact() {
		c.remaining[side] -= elapsed
		// A side that ran out does not get its increment back.
		if c.remaining[side] > 0 {
			c.remaining[side] += c.tc.Increment
		}
	}
	return elapsed
}

// Flagged reports whether either side's clock reached zero. It is always
// false in exact mode.
func (c *Clock) Flagged() bool {
	if c.tc.IsExact() {
		return false
	}
	return c.remaining[board.White] <= 0 || c.remaining[board.Black] <= 0
}

// FlaggedSide reports whether side in particular has run out of time.
func (c *Clock) FlaggedSide(side board.Side) bool {
	if c.tc.IsExact() {
		return false
	}
	return c.remaining[side] <= 0
}
