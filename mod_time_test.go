package ringrun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func TestTime_DeltaAndFrames(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	app := NewAppBuilder().UseModule(TimeModule{Now: clock.Now, Sleep: clock.Sleep}).Build()
	tm, ok := Resource[Time](app)
	require.True(t, ok)

	app.Step()
	assert.Equal(t, uint64(1), tm.Frame)
	assert.Zero(t, tm.Dt, "no delta on the first frame")

	clock.now = clock.now.Add(20 * time.Millisecond)
	app.Step()
	assert.Equal(t, uint64(2), tm.Frame)
	assert.Equal(t, 20*time.Millisecond, tm.Dt)
	assert.InDelta(t, 0.02, tm.Seconds(), 1e-12)
	assert.Empty(t, clock.slept, "no pacing without a target rate")
}

func TestTime_FramePacing(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	app := NewAppBuilder().UseModule(TimeModule{TargetFPS: 50, Now: clock.Now, Sleep: clock.Sleep}).Build()

	app.UseSystem(System(func() { clock.now = clock.now.Add(5 * time.Millisecond) }))
	app.Step()
	require.Len(t, clock.slept, 1)
	assert.Equal(t, 15*time.Millisecond, clock.slept[0])

	// A frame over budget does not sleep.
	app.UseSystem(System(func() { clock.now = clock.now.Add(30 * time.Millisecond) }))
	app.Step()
	assert.Len(t, clock.slept, 1)

	tm, _ := Resource[Time](app)
	assert.Equal(t, 20*time.Millisecond, tm.Dt)
}
