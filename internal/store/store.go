package store

import (
	"context"
	"errors"

	"github.com/seantiz/quinttest/internal/model"
)

var (
	// ErrNotFound is returned when a match is not found.
	ErrNotFound = errors.New("match not found")

	// ErrInvalidTransition is returned when a match status transition is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Stats holds aggregate statistics over all stored matches.
type Stats struct {
	TotalMatches      int            `json:"total_matches"`
	CountByStatus     map[string]int `json:"count_by_status"`
	TotalGames        int            `json:"total_games"`
	CountByResult     map[string]int `json:"count_by_result"`
	AvgGameDurationMS float64        `json:"avg_game_duration_ms"`
}

// Score is the running tally of a match.
type Score struct {
	WinsA  int
	WinsB  int
	Draws  int
	Errors int
}

// Store defines the persistence operations for matches and their games.
type Store interface {
	CreateMatch(ctx context.Context, m *model.Match) error
	GetMatch(ctx context.Context, id string) (*model.Match, error)
	ListMatches(ctx context.Context, limit, offset int) ([]*model.Match, int, error)
	UpdateMatchStatus(ctx context.Context, id, status string) error
	UpdateMatchScore(ctx context.Context, id string, score Score) error
	FinishMatch(ctx context.Context, m *model.Match) error
	InsertGame(ctx context.Context, g *model.Game) error
	ListGames(ctx context.Context, matchID string, limit, offset int) ([]*model.Game, int, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}
