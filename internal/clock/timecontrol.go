// Package clock implements time controls and the per-game clock that enforces
// them. A TimeControl is immutable configuration; a Clock is the mutable
// budget of one game and is owned by whoever plays that game.
package clock

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeControl is returned when a time-control string cannot be parsed.
var ErrInvalidTimeControl = errors.New("invalid time control")

// TimeControl is either sudden death with an optional increment
// (Base > 0, Exact == 0) or a fixed budget per move (Exact > 0, Base == 0).
type TimeControl struct {
	Base      time.Duration
	Increment time.Duration
	Exact     time.Duration
}

// Parse reads a time control in one of the forms "3+0.1" (3s base plus 0.1s
// per move), "3" (3s base, no increment) or "=5" (exactly 5s per move).
func Parse(s string) (TimeControl, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeControl{}, fmt.Errorf("%w: empty string", ErrInvalidTimeControl)
	}

	if rest, ok := strings.CutPrefix(s, "="); ok {
		exact, err := parseSeconds(rest)
		if err != nil {
			return TimeControl{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeControl, s, err)
		}
		if exact <= 0 {
			return TimeControl{}, fmt.Errorf("%w: %q: time per move must be positive", ErrInvalidTimeControl, s)
		}
		return TimeControl{Exact: exact}, nil
	}

	baseStr, incStr, hasInc := strings.Cut(s, "+")
	base, err := parseSeconds(baseStr)
	if err != nil {
		return TimeControl{}, fmt.Errorf("%w: %q: base: %v", ErrInvalidTimeControl, s, err)
	}
	if base <= 0 {
		return TimeControl{}, fmt.Errorf("%w: %q: base time must be positive", ErrInvalidTimeControl, s)
	}

	var inc time.Duration
	if hasInc {
		inc, err = parseSeconds(incStr)
		if err != nil {
			return TimeControl{}, fmt.Errorf("%w: %q: increment: %v", ErrInvalidTimeControl, s, err)
		}
		if inc < 0 {
			return TimeControl{}, fmt.Errorf("%w: %q: increment must not be negative", ErrInvalidTimeControl, s)
		}
	}

	return TimeControl{Base: base, Increment: inc}, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests.
func MustParse(s string) TimeControl {
	tc, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return tc
}

// IsExact reports whether the control bounds each move independently.
func (tc TimeControl) IsExact() bool {
	return tc.Exact > 0
}

// Validate checks that exactly one mode is configured.
func (tc TimeControl) Validate() error {
	switch {
	case tc.Exact > 0 && (tc.Base != 0 || tc.Increment != 0):
		return fmt.Errorf("%w: both exact and sudden-death budgets set", ErrInvalidTimeControl)
	case tc.Exact < 0:
		return fmt.Errorf("%w: negative time per move", ErrInvalidTimeControl)
	case tc.Exact == 0 && tc.Base <= 0:
		return fmt.Errorf("%w: no time budget set", ErrInvalidTimeControl)
	case tc.Increment < 0:
		return fmt.Errorf("%w: negative increment", ErrInvalidTimeControl)
	}
	return nil
}

// String formats the control in the same notation Parse accepts.
func (tc TimeControl) String() string {
	if tc.IsExact() {
		return "=" + formatSeconds(tc.Exact)
	}
	return formatSeconds(tc.Base) + "+" + formatSeconds(tc.Increment)
}

// maxSeconds is the first value a time.Duration cannot hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func parseSeconds(s string) (time.Duration, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	if math.Abs(v) >= maxSeconds {
		return 0, fmt.Errorf("%s seconds is out of range", strings.TrimSpace(s))
	}
	return time.Duration(v * float64(time.Second)), nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
