// Command quinttestd serves the match API: matches are submitted over HTTP,
// played in the background and stored in SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/seantiz/quinttest/internal/api"
	"github.com/seantiz/quinttest/internal/config"
	"github.com/seantiz/quinttest/internal/match"
	"github.com/seantiz/quinttest/internal/player"
	"github.com/seantiz/quinttest/internal/player/uci"
	"github.com/seantiz/quinttest/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	logger.Info("quinttestd: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"engines_dir", cfg.EnginesDir,
		"max_concurrency", cfg.MaxConcurrency,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	reg := player.NewRegistry(cfg.EnginesDir)
	n, err := reg.Discover(cfg.EnginesDir)
	if err != nil {
		logger.Warn("engine discovery failed", "dir", cfg.EnginesDir, "error", err)
	}
	logger.Info("engines discovered", "count", n)

	launcher := uci.NewLauncher(logger)
	mgr := match.NewManager(db, reg, launcher, logger, cfg.MaxConcurrency)

	srv := api.NewServer(cfg.ListenAddr, db, reg, mgr, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
