package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/seantiz/quinttest/internal/config"
	"github.com/seantiz/quinttest/internal/match"
)

var errGameFailed = errors.New("engine match failed")

// runClop plays a single game for the CLOP tuner and prints W, L or D from
// the tuned engine's point of view. Parameters arrive as name/value pairs;
// only the values are passed to the engine, in order. Odd seeds give the
// tuned engine the black pieces.
func runClop(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("clop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("f", config.DefaultMatchFile, "match file")
	enginesDir := fs.String("engines", "", "directory searched for engines (default: engines/ next to this executable)")
	logLevel := fs.String("log-level", "error", "log level for stderr (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("%w: clop needs <id> <seed> [name value]...", errUsage)
	}
	seed, err := strconv.ParseInt(rest[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid seed value %q", errUsage, rest[1])
	}
	params, err := clopParams(rest[2:])
	if err != nil {
		return err
	}

	mf, err := config.LoadMatchFile(*path)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		params = mf.EngineParameters
	}
	mf.Games, mf.Concurrency = 1, 1

	cfg, err := matchConfig(mf, params, *enginesDir)
	if err != nil {
		return err
	}
	swapped := seed%2 != 0
	if swapped {
		cfg.PlayerA, cfg.PlayerB = cfg.PlayerB, cfg.PlayerA
	}

	res, err := playMatch(ctx, cfg, stdout, newLogger(stderr, *logLevel), true)
	if err != nil {
		return err
	}
	if res.Counters.Total() != 1 {
		if len(res.Errors) > 0 {
			return fmt.Errorf("%w: %v", errGameFailed, res.Errors[0])
		}
		return errGameFailed
	}

	fmt.Fprintln(stdout, clopLetter(res.Counters, swapped))
	return nil
}

// clopParams extracts the values of name/value pairs.
func clopParams(pairs []string) ([]float64, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w: parameters must be name/value pairs", errUsage)
	}
	var params []float64
	for i := 1; i < len(pairs); i += 2 {
		v, err := strconv.ParseFloat(pairs[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid value %q for parameter %s", errUsage, pairs[i], pairs[i-1])
		}
		params = append(params, v)
	}
	return params, nil
}

// clopLetter returns the result of a one-game match for the tuned engine,
// which is PlayerB when swapped.
func clopLetter(c match.Counters, swapped bool) string {
	wins, losses := c.WinsA, c.WinsB
	if swapped {
		wins, losses = losses, wins
	}
	switch {
	case wins > losses:
		return "W"
	case losses > wins:
		return "L"
	default:
		return "D"
	}
}
