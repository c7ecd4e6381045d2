package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seantiz/quinttest/internal/model"

	_ "modernc.org/sqlite"
)

const createMatchesTable = `
CREATE TABLE IF NOT EXISTS matches (
    id           TEXT PRIMARY KEY,
    status       TEXT NOT NULL,
    player_a     TEXT NOT NULL,
    player_b     TEXT NOT NULL,
    time_control TEXT NOT NULL,
    games        INTEGER NOT NULL,
    concurrency  INTEGER NOT NULL,
    wins_a       INTEGER NOT NULL DEFAULT 0,
    wins_b       INTEGER NOT NULL DEFAULT 0,
    draws        INTEGER NOT NULL DEFAULT 0,
    errors       INTEGER NOT NULL DEFAULT 0,
    elo          REAL,
    los          REAL,
    error        TEXT,
    created_at   DATETIME NOT NULL,
    started_at   DATETIME,
    finished_at  DATETIME
)`

const createGamesTable = `
CREATE TABLE IF NOT EXISTS games (
    id          TEXT PRIMARY KEY,
    match_id    TEXT NOT NULL REFERENCES matches(id),
    number      INTEGER NOT NULL,
    white       TEXT NOT NULL,
    black       TEXT NOT NULL,
    result      TEXT NOT NULL,
    reason      TEXT,
    error       TEXT,
    moves       TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at  DATETIME NOT NULL
)`

const createGamesIndex = `CREATE INDEX IF NOT EXISTS idx_games_match ON games(match_id, number)`

const matchColumns = `id, status, player_a, player_b, time_control, games, concurrency,
	wins_a, wins_b, draws, errors, elo, los, error, created_at, started_at, finished_at`

const gameColumns = `id, match_id, number, white, black, result, reason, error, moves, duration_ms, created_at`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createMatchesTable, createGamesTable, createGamesIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(r rowScanner) (*model.Match, error) {
	m := &model.Match{}
	var errMsg sql.NullString
	if err := r.Scan(
		&m.ID, &m.Status, &m.PlayerA, &m.PlayerB, &m.TimeControl, &m.Games, &m.Concurrency,
		&m.WinsA, &m.WinsB, &m.Draws, &m.Errors, &m.Elo, &m.LOS, &errMsg,
		&m.CreatedAt, &m.StartedAt, &m.FinishedAt,
	); err != nil {
		return nil, err
	}
	m.Error = errMsg.String
	return m, nil
}

// CreateMatch inserts a new match record.
func (s *SQLiteStore) CreateMatch(ctx context.Context, m *model.Match) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (`+matchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Status, m.PlayerA, m.PlayerB, m.TimeControl, m.Games, m.Concurrency,
		m.WinsA, m.WinsB, m.Draws, m.Errors, m.Elo, m.LOS, m.Error,
		m.CreatedAt, m.StartedAt, m.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// GetMatch retrieves a match by ID.
func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

// ListMatches returns a paginated list of matches ordered by created_at DESC,
// along with the total count of all matches.
func (s *SQLiteStore) ListMatches(ctx context.Context, limit, offset int) ([]*model.Match, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate matches: %w", err)
	}

	return matches, total, nil
}

// UpdateMatchStatus moves a match to status, enforcing model.ValidTransition.
// Moving to running sets started_at; terminal statuses set finished_at.
func (s *SQLiteStore) UpdateMatchStatus(ctx context.Context, id, status string) error {
	var current string
	err := s.db.QueryRowContext(ctx, "SELECT status FROM matches WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get match status: %w", err)
	}
	if !model.ValidTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	now := time.Now().UTC()
	var result sql.Result
	switch {
	case status == model.StatusRunning:
		result, err = s.db.ExecContext(ctx,
			"UPDATE matches SET status = ?, started_at = ? WHERE id = ? AND status = ?",
			status, now, id, current,
		)
	case model.IsTerminal(status):
		result, err = s.db.ExecContext(ctx,
			"UPDATE matches SET status = ?, finished_at = ? WHERE id = ? AND status = ?",
			status, now, id, current,
		)
	default:
		result, err = s.db.ExecContext(ctx,
			"UPDATE matches SET status = ? WHERE id = ? AND status = ?",
			status, id, current,
		)
	}
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// The status changed underneath us.
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}
	return nil
}

// UpdateMatchScore stores the running score of a match.
func (s *SQLiteStore) UpdateMatchScore(ctx context.Context, id string, score Score) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE matches SET wins_a = ?, wins_b = ?, draws = ?, errors = ? WHERE id = ?",
		score.WinsA, score.WinsB, score.Draws, score.Errors, id,
	)
	if err != nil {
		return fmt.Errorf("update match score: %w", err)
	}
	return checkAffected(result)
}

// FinishMatch stores the final state of a match: status, score, statistics,
// error and finished_at. The stored status must be able to move to m.Status,
// so a finished match cannot be finished again.
func (s *SQLiteStore) FinishMatch(ctx context.Context, m *model.Match) error {
	if !model.IsTerminal(m.Status) {
		return fmt.Errorf("%w: %s is not a final status", ErrInvalidTransition, m.Status)
	}

	var current string
	err := s.db.QueryRowContext(ctx, "SELECT status FROM matches WHERE id = ?", m.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get match status: %w", err)
	}
	if !model.ValidTransition(current, m.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, m.Status)
	}

	finished := time.Now().UTC()
	if m.FinishedAt != nil {
		finished = *m.FinishedAt
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE matches SET status = ?, wins_a = ?, wins_b = ?, draws = ?, errors = ?,
			elo = ?, los = ?, error = ?, started_at = COALESCE(started_at, ?), finished_at = ?
		WHERE id = ? AND status = ?`,
		m.Status, m.WinsA, m.WinsB, m.Draws, m.Errors,
		m.Elo, m.LOS, m.Error, m.StartedAt, finished, m.ID, current,
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, m.Status)
	}
	return nil
}

// InsertGame stores one game of a match.
func (s *SQLiteStore) InsertGame(ctx context.Context, g *model.Game) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (`+gameColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.MatchID, g.Number, g.White, g.Black, g.Result, g.Reason, g.Error,
		strings.Join(g.Moves, " "), g.DurationMS, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// ListGames returns a page of the games of a match ordered by game number,
// along with the number of games stored for it.
func (s *SQLiteStore) ListGames(ctx context.Context, matchID string, limit, offset int) ([]*model.Game, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM games WHERE match_id = ?", matchID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE match_id = ? ORDER BY number LIMIT ? OFFSET ?`,
		matchID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		g := &model.Game{}
		var reason, errMsg sql.NullString
		var moves string
		if err := rows.Scan(
			&g.ID, &g.MatchID, &g.Number, &g.White, &g.Black, &g.Result, &reason, &errMsg,
			&moves, &g.DurationMS, &g.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan game: %w", err)
		}
		g.Reason = reason.String
		g.Error = errMsg.String
		g.Moves = strings.Fields(moves)
		if g.Moves == nil {
			g.Moves = []string{}
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate games: %w", err)
	}

	return games, total, nil
}

// GetStats returns aggregate statistics over all matches and games.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	st := &Stats{
		CountByStatus: make(map[string]int),
		CountByResult: make(map[string]int),
	}

	if err := groupCounts(ctx, tx, "SELECT status, COUNT(*) FROM matches GROUP BY status", st.CountByStatus); err != nil {
		return nil, fmt.Errorf("count matches by status: %w", err)
	}
	for _, n := range st.CountByStatus {
		st.TotalMatches += n
	}

	if err := groupCounts(ctx, tx, "SELECT result, COUNT(*) FROM games GROUP BY result", st.CountByResult); err != nil {
		return nil, fmt.Errorf("count games by result: %w", err)
	}
	for _, n := range st.CountByResult {
		st.TotalGames += n
	}

	var avg sql.NullFloat64
	if err := tx.QueryRowContext(ctx,
		"SELECT AVG(duration_ms) FROM games WHERE error IS NULL OR error = ''",
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average game duration: %w", err)
	}
	st.AvgGameDurationMS = avg.Float64

	return st, nil
}

func groupCounts(ctx context.Context, tx *sql.Tx, query string, into map[string]int) error {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
