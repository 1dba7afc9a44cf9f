package ringrun

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/ringrun/leaderboard"
)

// GameModule wires the whole game from a Config: clock, input, camera,
// course, indicators, overlays and scoring. The app must use the states
// StateIntro through StateQuit. A front end is installed separately.
type GameModule struct {
	Config Config
	// Board may be nil to play without a leaderboard.
	Board      *leaderboard.Board
	SeedSource func() uint64
	Touch      bool

	// Clock overrides, mainly for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
}

func (m GameModule) Install(app *App, cmd *Commands) {
	cfg := m.Config

	modules := []Module{
		TimeModule{TargetFPS: cfg.TargetFPS, Now: m.Now, Sleep: m.Sleep},
		LifecycleModule{},
		InputModule{Width: cfg.Window.Width, Height: cfg.Window.Height},
		UiModule{},
		FlyingCameraModule{Stateful: true, State: StatePlaying},
		CourseModule{
			Course:     cfg.Course,
			Start:      mgl64.Vec3(cfg.Camera.StartPosition),
			Username:   cfg.Username,
			SeedSource: m.SeedSource,
		},
		WaypointModule{Indicators: cfg.Indicators},
		IntroModule{Touch: m.Touch},
		HudModule{},
		LeaderboardModule{Board: m.Board},
	}
	for _, module := range modules {
		module.Install(app, cmd)
	}

	cam, fly := NewFlyingCamera(cfg.Camera)
	cmd.AddEntity(cam, fly)
}

// NewGame builds a stateful app running the game.
func NewGame(game GameModule, extra ...Module) *App {
	return NewAppBuilder().
		UseStates(StateIntro, StateQuit).
		UseModule(game).
		UseModule(extra...).
		Build()
}
