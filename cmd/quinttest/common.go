package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/seantiz/quinttest/internal/config"
	"github.com/seantiz/quinttest/internal/match"
	"github.com/seantiz/quinttest/internal/player/uci"
	"github.com/seantiz/quinttest/internal/progress"
)

// newLogger logs to stderr so stdout stays free for results.
func newLogger(stderr io.Writer, level string) *slog.Logger {
	return config.NewLogger(stderr, config.ParseLogLevel(level), config.LogFormatText)
}

// playMatch runs cfg with live progress on stdout.
func playMatch(ctx context.Context, cfg match.Config, stdout io.Writer, logger *slog.Logger, quiet bool) (match.FinalResult, error) {
	var sink match.Sink
	if !quiet {
		printer := progress.NewPrinter(stdout, cfg.PlayerA.FullName(), cfg.PlayerB.FullName(), cfg.Games)
		sink = printer

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				printer.Cancelled()
			case <-done:
			}
		}()
	}

	launcher := uci.NewLauncher(logger)
	return match.RunMatch(ctx, cfg, launcher, match.WithLogger(logger), match.WithSink(sink))
}
