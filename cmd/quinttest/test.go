package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/match"
	"github.com/seantiz/quinttest/internal/player"
)

// runTest plays every test engine against the base engine in turn.
func runTest(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(stderr)
	games := fs.Int("g", 0, "number of games per match (required)")
	tcString := fs.String("t", "", `time control: "=5" per move, "3+0.1" base+increment, "3" sudden death (required)`)
	concurrency := fs.Int("c", 1, "number of games played simultaneously")
	output := fs.String("o", "", "file to write the match reports to")
	enginesDir := fs.String("engines", "", "directory searched for engines (default: engines/ next to this executable)")
	stopOnError := fs.Bool("stop-on-error", false, "stop the whole match on the first engine error")
	logLevel := fs.String("log-level", "warn", "log level for stderr (debug, info, warn, error)")

	names, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(names) < 2 {
		return fmt.Errorf("%w: test needs at least one test engine and a base engine", errUsage)
	}
	if *games < 1 {
		return fmt.Errorf("%w: -g must be a positive number of games", errUsage)
	}
	tc, err := clock.Parse(*tcString)
	if err != nil {
		return fmt.Errorf("%w: -t: %v", errUsage, err)
	}

	base, err := player.Resolve(names[len(names)-1], *enginesDir)
	if err != nil {
		return err
	}
	var tested []player.Player
	for _, name := range names[:len(names)-1] {
		p, err := player.Resolve(name, *enginesDir)
		if err != nil {
			return err
		}
		tested = append(tested, p)
	}

	// Validate every pairing before playing anything.
	configs := make([]match.Config, len(tested))
	for i, p := range tested {
		configs[i] = match.Config{
			PlayerA:     p,
			PlayerB:     base,
			TimeControl: tc,
			Games:       *games,
			Concurrency: *concurrency,
			StopOnError: *stopOnError,
		}
		if err := configs[i].Validate(); err != nil {
			return err
		}
		if _, err := match.SplitQuotas(*games, *concurrency); err != nil {
			return err
		}
	}

	logger := newLogger(stderr, *logLevel)
	var reports strings.Builder
	for _, cfg := range configs {
		res, err := playMatch(ctx, cfg, stdout, logger, false)
		if err != nil {
			return err
		}

		report := res.Report().String()
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, report)
		reports.WriteString(report)
		reports.WriteString("\n")

		if res.Cancelled {
			break
		}
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(reports.String()), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}
	return nil
}
