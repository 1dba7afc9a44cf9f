package ringrun

import (
	"time"
)

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

// Seconds returns the last frame's duration in seconds.
func (t *Time) Seconds() float64 {
	return t.Dt.Seconds()
}

// TimeModule updates the Time resource at the start of every frame. With a
// positive TargetFPS it sleeps at the end of the frame to hold that rate.
type TimeModule struct {
	TargetFPS int
	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(time.Duration)
}

type frameClock struct {
	now    func() time.Time
	sleep  func(time.Duration)
	budget time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	clock := &frameClock{now: mod.Now, sleep: mod.Sleep}
	if clock.now == nil {
		clock.now = time.Now
	}
	if clock.sleep == nil {
		clock.sleep = time.Sleep
	}
	if mod.TargetFPS > 0 {
		clock.budget = time.Second / time.Duration(mod.TargetFPS)
	}

	cmd.AddResources(&Time{Time: clock.now()}, clock)
	cmd.UseSystem(System(timeSystem).InStage(Prelude).RunAlways())
	if clock.budget > 0 {
		cmd.UseSystem(System(framePacingSystem).InStage(Finale).RunAlways())
	}
}

func timeSystem(t *Time, clock *frameClock) {
	now := clock.now()
	if t.Frame > 0 {
		t.Dt = now.Sub(t.Time)
	}
	t.Time = now
	t.Frame++
}

func framePacingSystem(t *Time, clock *frameClock) {
	if spent := clock.now().Sub(t.Time); spent < clock.budget {
		clock.sleep(clock.budget - spent)
	}
}
