// Package uciengine implements a minimal UCI chess engine that plays random
// legal moves. It is the sparring partner used to exercise matches end to end
// and can be told to think slowly, crash or play an illegal move.
package uciengine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seantiz/quinttest/internal/board"
)

// DefaultName is the name reported in "id name".
const DefaultName = "quinttest-random"

// nullMove is sent when the position has no legal moves.
const nullMove = "0000"

// ErrCrash is returned by Serve when the engine stops on purpose after
// Options.CrashAfter moves.
var ErrCrash = errors.New("engine crashed on purpose")

// Options configures the engine's behaviour.
type Options struct {
	Name string
	// Delay is how long the engine "thinks" before every move.
	Delay time.Duration
	// CrashAfter makes Serve return ErrCrash instead of answering the
	// CrashAfter+1-th search. Zero disables it.
	CrashAfter int
	// IllegalAfter makes the engine answer an illegal move after this many
	// searches. Zero disables it.
	IllegalAfter int
	Seed         uint64
}

// Engine is a random-mover speaking UCI.
type Engine struct {
	opts     Options
	board    *board.Chess
	rng      *rand.Rand
	searches int
}

// New creates an engine. A zero Seed picks a random one.
func New(opts Options) *Engine {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Engine{
		opts:  opts,
		board: board.NewChess(),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Serve reads UCI commands from r and writes responses to w until "quit",
// end of input, or ctx is cancelled.
func (e *Engine) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "uci":
			fmt.Fprintf(out, "id name %s\n", e.opts.Name)
			fmt.Fprintln(out, "id author quinttest")
			fmt.Fprintln(out, "uciok")
		case "isready":
			fmt.Fprintln(out, "readyok")
		case "ucinewgame":
			e.board.Reset()
		case "position":
			if err := e.setPosition(fields[1:]); err != nil {
				log.Warn().Msgf("position %q: %v", line, err)
			}
		case "go":
			if e.opts.CrashAfter > 0 && e.searches >= e.opts.CrashAfter {
				out.Flush()
				return ErrCrash
			}
			move, err := e.search(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "bestmove %s\n", move)
		case "stop", "setoption", "debug", "register", "ponderhit":
			// Searches are synchronous, so there is nothing to stop.
		case "quit":
			return out.Flush()
		default:
			log.Debug().Msgf("unknown command %q", fields[0])
		}

		if err := out.Flush(); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

// setPosition handles the arguments of a "position" command. Only the
// starting position is supported.
func (e *Engine) setPosition(args []string) error {
	e.board.Reset()
	if len(args) == 0 || args[0] != "startpos" {
		return fmt.Errorf("only startpos is supported")
	}
	if len(args) > 1 && args[1] == "moves" {
		for _, m := range args[2:] {
			if err := e.board.Apply(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) search(ctx context.Context) (string, error) {
	e.searches++

	if e.opts.Delay > 0 {
		t := time.NewTimer(e.opts.Delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		}
	}

	if e.opts.IllegalAfter > 0 && e.searches > e.opts.IllegalAfter {
		return "a1a1", nil
	}

	legal := e.board.LegalMoves()
	if len(legal) == 0 {
		return nullMove, nil
	}
	return legal[e.rng.IntN(len(legal))], nil
}
