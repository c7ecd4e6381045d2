package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/config"
	"github.com/seantiz/quinttest/internal/match"
	"github.com/seantiz/quinttest/internal/player"
)

// runMatchFile plays the match described by a YAML match file.
func runMatchFile(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("f", config.DefaultMatchFile, "match file")
	enginesDir := fs.String("engines", "", "directory searched for engines (default: engines/ next to this executable)")
	logLevel := fs.String("log-level", "warn", "log level for stderr (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}

	mf, err := config.LoadMatchFile(*path)
	if err != nil {
		return err
	}
	cfg, err := matchConfig(mf, mf.EngineParameters, *enginesDir)
	if err != nil {
		return err
	}

	res, err := playMatch(ctx, cfg, stdout, newLogger(stderr, *logLevel), false)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	fmt.Fprint(stdout, res.Report().String())
	return nil
}

// matchConfig builds a match between the file's engine, started with
// engineParams, and its opponent.
func matchConfig(mf config.MatchFile, engineParams []float64, enginesDir string) (match.Config, error) {
	engine, err := locate(mf.EngineName, engineParams, enginesDir)
	if err != nil {
		return match.Config{}, err
	}
	opponent, err := locate(mf.OpponentName, mf.OpponentParameters, enginesDir)
	if err != nil {
		return match.Config{}, err
	}
	tc, err := clock.Parse(mf.TimeControl)
	if err != nil {
		return match.Config{}, err
	}

	cfg := match.Config{
		PlayerA:     engine,
		PlayerB:     opponent,
		TimeControl: tc,
		Games:       mf.Games,
		Concurrency: mf.Concurrency,
	}
	if err := cfg.Validate(); err != nil {
		return match.Config{}, err
	}
	return cfg, nil
}

func locate(name string, params []float64, enginesDir string) (player.Player, error) {
	path, err := player.Locate(name, enginesDir)
	if err != nil {
		return player.Player{}, err
	}
	return player.Player{Name: name, Params: params, Path: path}, nil
}
