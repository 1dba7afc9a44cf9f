package ringrun

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/ringrun/kvstore"
	"github.com/gekko3d/ringrun/leaderboard"
)

type gameRig struct {
	app   *App
	clock *fakeClock
	queue *InputQueue
	board *leaderboard.Board
}

func smallCourseConfig() Config {
	cfg := DefaultConfig()
	cfg.Course.RingCount = 3
	return cfg
}

func newGameRig(t *testing.T, cfg Config) *gameRig {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	board := leaderboard.New(kvstore.NewMemory())
	app := NewGame(GameModule{
		Config:     cfg,
		Board:      board,
		SeedSource: func() uint64 { return 99 },
		Now:        clock.Now,
		Sleep:      clock.Sleep,
	})
	app.Start()
	queue, ok := Resource[InputQueue](app)
	require.True(t, ok)
	return &gameRig{app: app, clock: clock, queue: queue, board: board}
}

func (r *gameRig) tap(key int) {
	r.queue.Push(InputEvent{Kind: EventKeyTap, Key: key})
}

func (r *gameRig) cmd() *Commands { return r.app.Commands() }

func (r *gameRig) rings() []RingComponent {
	var rings []RingComponent
	MakeQuery1[RingComponent](r.cmd()).Map(func(eid EntityId, ring *RingComponent) bool {
		rings = append(rings, *ring)
		return true
	})
	// Query order follows storage rows, which recycling reshuffles.
	slices.SortFunc(rings, func(a, b RingComponent) int { return a.Index - b.Index })
	return rings
}

func (r *gameRig) moveCamera(t *testing.T, to RingComponent) {
	t.Helper()
	r.moveCameraTo(t, to.Position)
}

func (r *gameRig) moveCameraTo(t *testing.T, to mgl64.Vec3) {
	t.Helper()
	moved := false
	MakeQuery1[CameraComponent](r.cmd()).Map(func(eid EntityId, cam *CameraComponent) bool {
		cam.Position = to
		moved = true
		return true
	})
	require.True(t, moved)
}

func (r *gameRig) startRun(t *testing.T) {
	t.Helper()
	r.tap(KeyEnter)
	require.True(t, r.app.Step())
	require.Equal(t, StatePlaying, r.app.State())
}

func (r *gameRig) flyCourse(t *testing.T) {
	t.Helper()
	for _, ring := range r.rings() {
		r.moveCamera(t, ring)
		require.True(t, r.app.Step())
	}
}

func TestGame_FullRun(t *testing.T) {
	rig := newGameRig(t, smallCourseConfig())
	assert.Equal(t, StateIntro, rig.app.State())
	assert.Equal(t, 4, MakeQuery1[IntroUi](rig.cmd()).Count())

	rig.queue.Push(InputEvent{Kind: EventChar, Rune: 'X'})
	require.True(t, rig.app.Step())
	player, _ := Resource[Player](rig.app)
	assert.Equal(t, "pilotX", player.Username)

	rig.startRun(t)
	assert.Zero(t, MakeQuery1[IntroUi](rig.cmd()).Count(), "the intro is gone once playing")
	assert.Equal(t, 1, MakeQuery1[HudText](rig.cmd()).Count())

	course, _ := Resource[CourseState](rig.app)
	assert.Equal(t, uint64(1), course.Seed)
	assert.NotEmpty(t, course.RunID)
	rings := rig.rings()
	require.Len(t, rings, 3)

	saved, err := rig.board.Username(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pilotX", saved, "the name is saved when the intro closes")

	// One frame without moving: the first ring is tracked and on screen.
	require.True(t, rig.app.Step())
	hud, _ := Resource[HudIndicators](rig.app)
	require.Len(t, hud.Items, 1)
	assert.Equal(t, rings[0].ID, hud.Items[0].ID)
	assert.False(t, hud.Items[0].Offscreen)
	assert.Equal(t, "#22d3ee", hud.Items[0].Color)
	assert.Equal(t, 0, course.Next)

	rig.flyCourse(t)
	assert.Equal(t, StateFinished, rig.app.State())
	assert.True(t, course.Finished)
	assert.Equal(t, 3, course.Next)
	assert.Greater(t, course.Elapsed, time.Duration(0))

	lb, _ := Resource[LeaderboardState](rig.app)
	require.NoError(t, lb.Err)
	assert.Equal(t, 1, lb.Rank)
	require.Len(t, lb.Course, 1)
	assert.Equal(t, "pilotX", lb.Course[0].User)
	assert.Equal(t, 3, MakeQuery1[ResultsUi](rig.cmd()).Count())
	assert.Zero(t, MakeQuery1[HudText](rig.cmd()).Count())
	assert.Len(t, rig.board.Global(context.Background()), 1)

	// N flies a freshly generated course.
	rig.tap(KeyN)
	require.True(t, rig.app.Step())
	assert.Equal(t, StatePlaying, rig.app.State())
	assert.Equal(t, uint64(99), course.Seed)
	assert.Equal(t, 0, course.Next)
	assert.Zero(t, course.Elapsed)
	newRings := rig.rings()
	require.Len(t, newRings, 3)
	assert.NotEqual(t, rings[0].ID, newRings[0].ID)
	assert.Zero(t, MakeQuery1[ResultsUi](rig.cmd()).Count())

	pos, ok := cameraPosition(rig.cmd())
	require.True(t, ok)
	assert.Equal(t, DefaultConfig().Camera.StartPosition, [3]float64(pos), "the camera is back at the start")

	rig.tap(KeyEscape)
	assert.False(t, rig.app.Step(), "escape quits")
	assert.Equal(t, StateQuit, rig.app.State())
}

func TestGame_RetrySameCourse(t *testing.T) {
	rig := newGameRig(t, smallCourseConfig())
	rig.startRun(t)
	first := rig.rings()
	rig.flyCourse(t)
	require.Equal(t, StateFinished, rig.app.State())

	rig.tap(KeyR)
	require.True(t, rig.app.Step())
	require.Equal(t, StatePlaying, rig.app.State())
	assert.Equal(t, first[0].ID, rig.rings()[0].ID, "R replays the same seed")

	rig.flyCourse(t)
	lb, _ := Resource[LeaderboardState](rig.app)
	assert.Len(t, lb.Course, 2)
	assert.Positive(t, lb.Rank)
}

func TestGame_RingsMustBePassedInOrder(t *testing.T) {
	rig := newGameRig(t, smallCourseConfig())
	rig.startRun(t)
	rings := rig.rings()

	// Swing wide of the first ring, then come in to the second.
	rig.moveCameraTo(t, rings[1].Position.Add(mgl64.Vec3{50, 0, 0}))
	require.True(t, rig.app.Step())
	rig.moveCamera(t, rings[1])
	require.True(t, rig.app.Step())
	course, _ := Resource[CourseState](rig.app)
	assert.Equal(t, 0, course.Next, "skipping ahead does not count")
	assert.False(t, rig.rings()[1].Passed)

	rig.moveCamera(t, rings[0])
	require.True(t, rig.app.Step())
	assert.Equal(t, 1, course.Next)
	assert.True(t, rig.rings()[0].Passed)
}

func TestGame_FlyingThroughRingsInOneFrame(t *testing.T) {
	rig := newGameRig(t, smallCourseConfig())
	rig.startRun(t)
	rings := rig.rings()
	course, _ := Resource[CourseState](rig.app)

	// Past the first ring along the line from it to the second.
	beyond := rings[0].Position.Add(rings[1].Position.Sub(rings[0].Position).Mul(0.5))
	rig.moveCameraTo(t, rings[0].Position.Add(rings[0].Position.Sub(beyond)))
	require.True(t, rig.app.Step())
	require.Equal(t, 0, course.Next)

	rig.moveCameraTo(t, beyond)
	require.True(t, rig.app.Step())
	assert.Equal(t, 1, course.Next, "the ring between two frames counts")

	// Line up behind the second ring, then cross it and the third at once.
	leg := rings[2].Position.Sub(rings[1].Position)
	rig.moveCameraTo(t, rings[1].Position.Sub(leg))
	require.True(t, rig.app.Step())
	require.Equal(t, 1, course.Next)

	rig.moveCameraTo(t, rings[2].Position.Add(leg))
	require.True(t, rig.app.Step())
	assert.Equal(t, 3, course.Next, "one long frame can pass several rings")
	assert.Equal(t, StateFinished, rig.app.State())
}

func TestGame_EscapeFromIntro(t *testing.T) {
	rig := newGameRig(t, smallCourseConfig())
	rig.tap(KeyEscape)
	assert.False(t, rig.app.Step())
}

func TestGame_WithoutBoard(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	app := NewGame(GameModule{Config: smallCourseConfig(), Now: clock.Now, Sleep: clock.Sleep})
	app.Start()
	queue, _ := Resource[InputQueue](app)
	rig := &gameRig{app: app, clock: clock, queue: queue}

	rig.startRun(t)
	rig.flyCourse(t)
	require.Equal(t, StateFinished, app.State())

	lb, _ := Resource[LeaderboardState](app)
	assert.Zero(t, lb.Rank)
	assert.Nil(t, lb.Course)
	assert.Positive(t, lb.Time)
	assert.Equal(t, 2, MakeQuery1[ResultsUi](rig.cmd()).Count(), "no table without scores")
}
