// Command randomengine is a UCI chess engine that plays random legal moves.
//
// Optional positional arguments, as passed by engine parameters
// (randomengine_params_<delay>_<crash>_<illegal>):
//
//	delay    milliseconds to think before every move
//	crash    exit after answering this many searches
//	illegal  answer an illegal move after this many searches
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seantiz/quinttest/internal/uciengine"
)

func main() {
	// Stdout carries the UCI protocol; logs go to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("QUINTTEST_ENGINE_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	err = uciengine.New(opts).Serve(ctx, os.Stdin, os.Stdout)
	switch {
	case errors.Is(err, uciengine.ErrCrash):
		log.Warn().Msg("crashing on request")
		os.Exit(3)
	case err != nil && !errors.Is(err, context.Canceled):
		log.Fatal().Err(err).Msg("engine stopped")
	}
}

func parseArgs(args []string) (uciengine.Options, error) {
	var opts uciengine.Options
	values := make([]int, 3)
	for i, a := range args {
		if i >= len(values) {
			break
		}
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return opts, err
		}
		values[i] = int(v)
	}
	opts.Delay = time.Duration(values[0]) * time.Millisecond
	opts.CrashAfter = values[1]
	opts.IllegalAfter = values[2]
	return opts, nil
}
