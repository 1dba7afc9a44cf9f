// Command ringrun flies a ring course in the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/gdamore/tcell/v2"

	"github.com/gekko3d/ringrun"
	"github.com/gekko3d/ringrun/kvstore"
	"github.com/gekko3d/ringrun/leaderboard"
	"github.com/gekko3d/ringrun/termhud"
)

var (
	configPath = flag.String("config", "", "path to a JSON config file")
	seed       = flag.Uint64("seed", 0, "course seed, 0 keeps the configured one")
	dbPath     = flag.String("db", "", "leaderboard database, overrides leaderboard.db_path")
	username   = flag.String("user", "", "pilot name used until one is saved")
	logFile    = flag.String("log", "", "log file, overrides log.file")
	debugLog   = flag.Bool("debug", false, "enable debug logging")
	touch      = flag.Bool("touch", false, "show pointer-only control hints")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the exit code. Everything it opens is released by defers, so
// it must return rather than exit.
func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringrun: %v\n", err)
		return 2
	}

	// The terminal belongs to the game, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ringrun: open log: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger := ringrun.NewDefaultLogger("ringrun", cfg.Log.Debug, logOut)

	board, closeStore, err := openBoard(cfg.Leaderboard, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringrun: %v\n", err)
		return 1
	}
	defer closeStore()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringrun: create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "ringrun: init screen: %v\n", err)
		return 1
	}
	return playGuarded(screen, logger, os.Stderr, func() {
		app := ringrun.NewGame(
			ringrun.GameModule{Config: cfg, Board: board, Touch: *touch},
			ringrun.LoggingModule{Prefix: "ringrun", Debug: cfg.Log.Debug, Output: logOut},
			termhud.Module{Screen: screen, CellWidth: cfg.Window.CellWidth, CellHeight: cfg.Window.CellHeight},
		)
		app.Run()

		course, _ := ringrun.Resource[ringrun.CourseState](app)
		logger.Infof("quit on course %d at %s", course.Seed, course.Progress())
	})
}

// playGuarded runs play and finalizes the screen exactly once. A panic is
// reported to stderr after the terminal is restored and turns into exit
// code 1.
func playGuarded(screen tcell.Screen, logger ringrun.Logger, stderr io.Writer, play func()) (code int) {
	defer func() {
		r := recover()
		screen.Fini()
		if r != nil {
			logger.Errorf("crashed: %v", r)
			fmt.Fprintf(stderr, "ringrun crashed: %v\n%s\n", r, debug.Stack())
			code = 1
		}
	}()
	play()
	return 0
}

func loadConfig() (ringrun.Config, error) {
	cfg := ringrun.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = ringrun.LoadConfig(*configPath); err != nil {
			return cfg, err
		}
	}

	if *seed != 0 {
		cfg.Course.Seed = *seed
	}
	if *dbPath != "" {
		cfg.Leaderboard.DBPath = *dbPath
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *debugLog {
		cfg.Log.Debug = true
	}
	return cfg, cfg.Validate()
}

// openBoard keeps scores in memory unless a database path is configured.
func openBoard(cfg ringrun.LeaderboardConfig, logger *ringrun.DefaultLogger) (*leaderboard.Board, func(), error) {
	opts := []leaderboard.Option{
		leaderboard.WithLimits(cfg.PerCourseLimit, cfg.GlobalLimit),
		leaderboard.WithLogger(logger.Slog()),
	}
	if cfg.DBPath == "" {
		return leaderboard.New(kvstore.NewMemory(), opts...), func() {}, nil
	}

	store, err := kvstore.OpenSQLite(cfg.DBPath, logger.Slog())
	if err != nil {
		return nil, nil, fmt.Errorf("open leaderboard: %w", err)
	}
	return leaderboard.New(store, opts...), func() { _ = store.Close() }, nil
}
