// Command ringrun-board serves the ringrun leaderboard over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gekko3d/ringrun"
	"github.com/gekko3d/ringrun/kvstore"
	"github.com/gekko3d/ringrun/leaderboard"
	"github.com/gekko3d/ringrun/leaderboard/api"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "ringrun.db", "leaderboard database")
	courseLimit := flag.Int("course-limit", leaderboard.DefaultCourseLimit, "entries kept per course")
	globalLimit := flag.Int("global-limit", leaderboard.DefaultGlobalLimit, "entries kept on the global list")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := ringrun.NewDefaultLogger("ringrun-board", *debug, os.Stderr).Slog()

	store, err := kvstore.OpenSQLite(*dbPath, logger)
	if err != nil {
		logger.Error("open database", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	board := leaderboard.New(store,
		leaderboard.WithLimits(*courseLimit, *globalLimit),
		leaderboard.WithLogger(logger),
	)
	server := api.NewServer(board, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- server.Listen(*addr) }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}
}
