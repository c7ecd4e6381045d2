package match

import (
	"errors"
	"fmt"

	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/player"
)

var (
	// ErrInvalidConfig is returned for match settings that can never run,
	// such as a non-positive number of games or workers.
	ErrInvalidConfig = errors.New("invalid match config")

	// ErrUnsatisfiableSplit is returned when the games cannot be divided so
	// that every worker plays at least one game.
	ErrUnsatisfiableSplit = errors.New("games cannot be split over workers")
)

// Config describes one match between PlayerA and PlayerB. All statistics are
// reported from PlayerA's point of view.
type Config struct {
	PlayerA     player.Player
	PlayerB     player.Player
	TimeControl clock.TimeControl
	Games       int
	Concurrency int
	// StopOnError cancels the whole match on the first engine error instead
	// of only abandoning the failed game.
	StopOnError bool
}

// Validate checks the config before any worker starts.
func (c Config) Validate() error {
	if c.PlayerA.Name == "" || c.PlayerB.Name == "" {
		return fmt.Errorf("%w: both players are required", ErrInvalidConfig)
	}
	if c.Games < 1 {
		return fmt.Errorf("%w: games must be positive, got %d", ErrInvalidConfig, c.Games)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if err := c.TimeControl.Validate(); err != nil {
		return err
	}
	return nil
}

// SplitQuotas divides games over concurrency workers. Every quota is even
// except at most one, so alternating colours inside each worker keeps the
// number of games each player starts as white equal, or off by one when
// games is odd. It fails if some worker would get no game.
func SplitQuotas(games, concurrency int) ([]int, error) {
	if games < 1 || concurrency < 1 {
		return nil, fmt.Errorf("%w: games=%d concurrency=%d", ErrInvalidConfig, games, concurrency)
	}
	if concurrency > (games+1)/2 {
		return nil, fmt.Errorf("%w: %d games need at most %d workers, got %d",
			ErrUnsatisfiableSplit, games, (games+1)/2, concurrency)
	}

	pairs := games / 2
	quotas := make([]int, concurrency)
	for i := range quotas {
		quotas[i] = 2 * (pairs / concurrency)
		if i < pairs%concurrency {
			quotas[i] += 2
		}
	}
	if games%2 == 1 {
		// Quotas are non-increasing, so the last one is the smallest.
		quotas[concurrency-1]++
	}
	return quotas, nil
}
