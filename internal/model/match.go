package model

import "time"

// Match status constants.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Game result constants, in PGN notation from white's point of view.
const (
	ResultWhiteWins  = "1-0"
	ResultBlackWins  = "0-1"
	ResultDraw       = "1/2-1/2"
	ResultUnfinished = "*"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning:   true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminal reports whether status is a final match status.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

// Match is a persisted engine match and its running score, oriented on
// PlayerA.
type Match struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	PlayerA     string     `json:"player_a"`
	PlayerB     string     `json:"player_b"`
	TimeControl string     `json:"time_control"`
	Games       int        `json:"games"`
	Concurrency int        `json:"concurrency"`
	WinsA       int        `json:"wins_a"`
	WinsB       int        `json:"wins_b"`
	Draws       int        `json:"draws"`
	Errors      int        `json:"errors"`
	Elo         *float64   `json:"elo,omitempty"`
	LOS         *float64   `json:"los,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Played returns the number of games with a result.
func (m *Match) Played() int {
	return m.WinsA + m.WinsB + m.Draws
}

// Game is one finished or failed game of a match.
type Game struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"match_id"`
	Number     int       `json:"number"`
	White      string    `json:"white"`
	Black      string    `json:"black"`
	Result     string    `json:"result"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	Moves      []string  `json:"moves"`
	DurationMS int       `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
