package uciengine_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seantiz/quinttest/internal/board"
	"github.com/seantiz/quinttest/internal/uciengine"
)

func serve(t *testing.T, e *uciengine.Engine, input string) ([]string, error) {
	t.Helper()
	var out bytes.Buffer
	err := e.Serve(context.Background(), strings.NewReader(input), &out)
	return strings.Split(strings.TrimSpace(out.String()), "\n"), err
}

func bestMoves(lines []string) []string {
	var moves []string
	for _, l := range lines {
		if m, ok := strings.CutPrefix(l, "bestmove "); ok {
			moves = append(moves, m)
		}
	}
	return moves
}

func TestHandshake(t *testing.T) {
	lines, err := serve(t, uciengine.New(uciengine.Options{Name: "sparring"}), "uci\nisready\nquit\n")
	require.NoError(t, err)
	require.Equal(t, []string{"id name sparring", "id author quinttest", "uciok", "readyok"}, lines)
}

func TestPlaysLegalMoves(t *testing.T) {
	e := uciengine.New(uciengine.Options{Seed: 42})

	input := "ucinewgame\nposition startpos\ngo movetime 10\nposition startpos moves e2e4\ngo wtime 1000 btime 1000\nquit\n"
	lines, err := serve(t, e, input)
	require.NoError(t, err)

	moves := bestMoves(lines)
	require.Len(t, moves, 2)

	b := board.NewChess()
	require.NoError(t, b.Apply(moves[0]))

	b.Reset()
	require.NoError(t, b.Apply("e2e4"))
	require.NoError(t, b.Apply(moves[1]))
}

func TestSameSeedSameMoves(t *testing.T) {
	input := "position startpos\ngo movetime 1\nquit\n"
	a, err := serve(t, uciengine.New(uciengine.Options{Seed: 7}), input)
	require.NoError(t, err)
	b, err := serve(t, uciengine.New(uciengine.Options{Seed: 7}), input)
	require.NoError(t, err)
	require.Equal(t, bestMoves(a), bestMoves(b))
}

func TestCrashAfter(t *testing.T) {
	e := uciengine.New(uciengine.Options{CrashAfter: 1})
	lines, err := serve(t, e, "position startpos\ngo movetime 1\nposition startpos\ngo movetime 1\nquit\n")
	require.ErrorIs(t, err, uciengine.ErrCrash)
	require.Len(t, bestMoves(lines), 1)
}

func TestIllegalAfter(t *testing.T) {
	e := uciengine.New(uciengine.Options{IllegalAfter: 1})
	lines, err := serve(t, e, "position startpos\ngo movetime 1\nposition startpos\ngo movetime 1\nquit\n")
	require.NoError(t, err)
	moves := bestMoves(lines)
	require.Len(t, moves, 2)
	require.Equal(t, "a1a1", moves[1])
}

func TestDelayHonoursContext(t *testing.T) {
	e := uciengine.New(uciengine.Options{Delay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := e.Serve(ctx, strings.NewReader("position startpos\ngo movetime 1\n"), &out)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEndOfInput(t *testing.T) {
	_, err := serve(t, uciengine.New(uciengine.Options{}), "isready\n")
	require.NoError(t, err)
}
