package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/seantiz/quinttest/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestMatch() *model.Match {
	return &model.Match{
		ID:          model.NewID(),
		Status:      model.StatusPending,
		PlayerA:     "Bot_params_300",
		PlayerB:     "Base",
		TimeControl: "3+0.1",
		Games:       10,
		Concurrency: 2,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func createMatch(t *testing.T, s *SQLiteStore) *model.Match {
	t.Helper()
	m := makeTestMatch()
	if err := s.CreateMatch(context.Background(), m); err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	return m
}

func makeTestGame(matchID string, number int, result string) *model.Game {
	return &model.Game{
		ID:         model.NewID(),
		MatchID:    matchID,
		Number:     number,
		White:      "Bot_params_300",
		Black:      "Base",
		Result:     result,
		Reason:     "checkmate",
		Moves:      []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		DurationMS: 100 * number,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetMatch(t *testing.T) {
	s := newTestStore(t)
	m := createMatch(t, s)

	got, err := s.GetMatch(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}

	if got.ID != m.ID {
		t.Errorf("ID = %q, want %q", got.ID, m.ID)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPending)
	}
	if got.PlayerA != m.PlayerA || got.PlayerB != m.PlayerB {
		t.Errorf("players = %q vs %q, want %q vs %q", got.PlayerA, got.PlayerB, m.PlayerA, m.PlayerB)
	}
	if got.TimeControl != "3+0.1" {
		t.Errorf("TimeControl = %q, want %q", got.TimeControl, "3+0.1")
	}
	if got.Games != 10 || got.Concurrency != 2 {
		t.Errorf("Games/Concurrency = %d/%d, want 10/2", got.Games, got.Concurrency)
	}
	if got.Elo != nil || got.LOS != nil {
		t.Errorf("Elo/LOS = %v/%v, want nil", got.Elo, got.LOS)
	}
	if got.StartedAt != nil {
		t.Errorf("StartedAt = %v, want nil", got.StartedAt)
	}
}

func TestGetMatchNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetMatch(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Errorf("GetMatch error = %v, want ErrNotFound", err)
	}
}

func TestListMatchesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m := makeTestMatch()
		m.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Truncate(time.Second)
		if err := s.CreateMatch(ctx, m); err != nil {
			t.Fatalf("CreateMatch[%d]: %v", i, err)
		}
	}

	matches, total, err := s.ListMatches(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(matches) != 2 {
		t.Errorf("len(matches) = %d, want 2", len(matches))
	}

	matches, _, err = s.ListMatches(ctx, 2, 4)
	if err != nil {
		t.Fatalf("ListMatches page 3: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("len(matches) page 3 = %d, want 1", len(matches))
	}
}

func TestListMatchesOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m := makeTestMatch()
		m.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := s.CreateMatch(ctx, m); err != nil {
			t.Fatalf("CreateMatch[%d]: %v", i, err)
		}
	}

	matches, _, err := s.ListMatches(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}

	// Newest first.
	for i := 1; i < len(matches); i++ {
		if matches[i].CreatedAt.After(matches[i-1].CreatedAt) {
			t.Errorf("matches not in DESC order: [%d].CreatedAt=%v > [%d].CreatedAt=%v",
				i, matches[i].CreatedAt, i-1, matches[i-1].CreatedAt)
		}
	}
}

func TestListMatchesEmpty(t *testing.T) {
	s := newTestStore(t)

	matches, total, err := s.ListMatches(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if matches != nil {
		t.Errorf("matches = %v, want nil", matches)
	}
}

func TestUpdateMatchStatusLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)

	if err := s.UpdateMatchStatus(ctx, m.ID, model.StatusRunning); err != nil {
		t.Fatalf("UpdateMatchStatus running: %v", err)
	}
	got, _ := s.GetMatch(ctx, m.ID)
	if got.Status != model.StatusRunning {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusRunning)
	}
	if got.StartedAt == nil {
		t.Error("StartedAt = nil, want set")
	}

	if err := s.UpdateMatchStatus(ctx, m.ID, model.StatusCancelled); err != nil {
		t.Fatalf("UpdateMatchStatus cancelled: %v", err)
	}
	got, _ = s.GetMatch(ctx, m.ID)
	if got.FinishedAt == nil {
		t.Error("FinishedAt = nil, want set")
	}
}

func TestUpdateMatchStatusInvalidTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)

	err := s.UpdateMatchStatus(ctx, m.ID, model.StatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> completed error = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateMatchStatusNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateMatchStatus(context.Background(), "nonexistent", model.StatusRunning)
	if err != ErrNotFound {
		t.Errorf("UpdateMatchStatus error = %v, want ErrNotFound", err)
	}
}

func TestUpdateMatchScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)

	if err := s.UpdateMatchScore(ctx, m.ID, Score{WinsA: 3, WinsB: 1, Draws: 2, Errors: 1}); err != nil {
		t.Fatalf("UpdateMatchScore: %v", err)
	}

	got, _ := s.GetMatch(ctx, m.ID)
	if got.WinsA != 3 || got.WinsB != 1 || got.Draws != 2 || got.Errors != 1 {
		t.Errorf("score = %d/%d/%d/%d, want 3/1/2/1", got.WinsA, got.WinsB, got.Draws, got.Errors)
	}

	if err := s.UpdateMatchScore(ctx, "nonexistent", Score{}); err != ErrNotFound {
		t.Errorf("UpdateMatchScore error = %v, want ErrNotFound", err)
	}
}

func TestFinishMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)
	if err := s.UpdateMatchStatus(ctx, m.ID, model.StatusRunning); err != nil {
		t.Fatalf("UpdateMatchStatus: %v", err)
	}

	elo, los := 190.85, 84.13
	m.Status = model.StatusCompleted
	m.WinsA, m.WinsB = 3, 1
	m.Elo, m.LOS = &elo, &los
	if err := s.FinishMatch(ctx, m); err != nil {
		t.Fatalf("FinishMatch: %v", err)
	}

	got, _ := s.GetMatch(ctx, m.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.Elo == nil || *got.Elo != elo {
		t.Errorf("Elo = %v, want %v", got.Elo, elo)
	}
	if got.LOS == nil || *got.LOS != los {
		t.Errorf("LOS = %v, want %v", got.LOS, los)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt = nil, want set")
	}
}

func TestFinishMatchRejectsNonTerminal(t *testing.T) {
	s := newTestStore(t)
	m := createMatch(t, s)
	m.Status = model.StatusRunning

	if err := s.FinishMatch(context.Background(), m); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("FinishMatch error = %v, want ErrInvalidTransition", err)
	}
}

func TestFinishMatchOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)
	if err := s.UpdateMatchStatus(ctx, m.ID, model.StatusRunning); err != nil {
		t.Fatalf("UpdateMatchStatus: %v", err)
	}

	m.Status = model.StatusCancelled
	m.WinsA = 1
	if err := s.FinishMatch(ctx, m); err != nil {
		t.Fatalf("first FinishMatch: %v", err)
	}

	m.Status = model.StatusCompleted
	m.WinsA = 5
	if err := s.FinishMatch(ctx, m); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second FinishMatch error = %v, want ErrInvalidTransition", err)
	}

	got, _ := s.GetMatch(ctx, m.ID)
	if got.Status != model.StatusCancelled || got.WinsA != 1 {
		t.Errorf("stored status/wins_a = %s/%d, want cancelled/1", got.Status, got.WinsA)
	}
}

func TestFinishMatchFromPendingOnlyFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := createMatch(t, s)
	m.Status = model.StatusCompleted
	if err := s.FinishMatch(ctx, m); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> completed error = %v, want ErrInvalidTransition", err)
	}

	m.Status = model.StatusFailed
	m.Error = "failed to start"
	if err := s.FinishMatch(ctx, m); err != nil {
		t.Errorf("pending -> failed: %v", err)
	}
}

func TestFinishMatchNotFound(t *testing.T) {
	s := newTestStore(t)
	m := makeTestMatch()
	m.Status = model.StatusFailed
	if err := s.FinishMatch(context.Background(), m); !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishMatch error = %v, want ErrNotFound", err)
	}
}

func TestInsertAndListGames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)
	other := createMatch(t, s)

	for i := 3; i >= 1; i-- {
		if err := s.InsertGame(ctx, makeTestGame(m.ID, i, model.ResultBlackWins)); err != nil {
			t.Fatalf("InsertGame[%d]: %v", i, err)
		}
	}
	if err := s.InsertGame(ctx, makeTestGame(other.ID, 1, model.ResultDraw)); err != nil {
		t.Fatalf("InsertGame other: %v", err)
	}

	games, total, err := s.ListGames(ctx, m.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if total != 3 || len(games) != 3 {
		t.Fatalf("total/len = %d/%d, want 3/3", total, len(games))
	}
	for i, g := range games {
		if g.Number != i+1 {
			t.Errorf("games[%d].Number = %d, want %d", i, g.Number, i+1)
		}
	}
	if !reflect.DeepEqual(games[0].Moves, []string{"f2f3", "e7e5", "g2g4", "d8h4"}) {
		t.Errorf("Moves = %v", games[0].Moves)
	}
	if games[0].Reason != "checkmate" {
		t.Errorf("Reason = %q, want checkmate", games[0].Reason)
	}

	games, total, err = s.ListGames(ctx, m.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListGames page: %v", err)
	}
	if total != 3 || len(games) != 1 || games[0].Number != 3 {
		t.Errorf("page = %d games (total %d), want game 3 of 3", len(games), total)
	}
}

func TestInsertGameWithoutMoves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createMatch(t, s)

	g := makeTestGame(m.ID, 1, model.ResultUnfinished)
	g.Moves = nil
	g.Error = "engine crashed"
	if err := s.InsertGame(ctx, g); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}

	games, _, err := s.ListGames(ctx, m.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games[0].Moves) != 0 || games[0].Moves == nil {
		t.Errorf("Moves = %#v, want empty non-nil", games[0].Moves)
	}
	if games[0].Error != "engine crashed" {
		t.Errorf("Error = %q", games[0].Error)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := createMatch(t, s)
	running := createMatch(t, s)
	if err := s.UpdateMatchStatus(ctx, running.ID, model.StatusRunning); err != nil {
		t.Fatal(err)
	}

	if err := s.InsertGame(ctx, makeTestGame(m.ID, 1, model.ResultWhiteWins)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertGame(ctx, makeTestGame(m.ID, 2, model.ResultWhiteWins)); err != nil {
		t.Fatal(err)
	}
	failed := makeTestGame(m.ID, 3, model.ResultUnfinished)
	failed.Error = "crash"
	if err := s.InsertGame(ctx, failed); err != nil {
		t.Fatal(err)
	}

	st, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.TotalMatches != 2 {
		t.Errorf("TotalMatches = %d, want 2", st.TotalMatches)
	}
	if st.CountByStatus[model.StatusPending] != 1 || st.CountByStatus[model.StatusRunning] != 1 {
		t.Errorf("CountByStatus = %v", st.CountByStatus)
	}
	if st.TotalGames != 3 {
		t.Errorf("TotalGames = %d, want 3", st.TotalGames)
	}
	if st.CountByResult[model.ResultWhiteWins] != 2 {
		t.Errorf("CountByResult = %v", st.CountByResult)
	}
	// Games 1 and 2 last 100ms and 200ms; the failed game is excluded.
	if st.AvgGameDurationMS != 150 {
		t.Errorf("AvgGameDurationMS = %v, want 150", st.AvgGameDurationMS)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	st, err := s.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.TotalMatches != 0 || st.TotalGames != 0 || st.AvgGameDurationMS != 0 {
		t.Errorf("stats = %+v, want zeros", st)
	}
}
