package ringrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/ringrun/kvstore"
	"github.com/gekko3d/ringrun/leaderboard"
)

func TestLeaderboardModule_LoadsSavedName(t *testing.T) {
	store := kvstore.NewMemory()
	board := leaderboard.New(store)
	require.NoError(t, board.SetUsername(context.Background(), "maverick"))

	clock := &fakeClock{now: time.Unix(0, 0)}
	app := NewGame(GameModule{Config: smallCourseConfig(), Board: board, Now: clock.Now, Sleep: clock.Sleep})
	app.Start()

	player, _ := Resource[Player](app)
	assert.Equal(t, "maverick", player.Username)
}

func TestLeaderboardModule_RecordsEveryRun(t *testing.T) {
	rig := newGameRig(t, smallCourseConfig())
	for run := 1; run <= 3; run++ {
		if run == 1 {
			rig.startRun(t)
		} else {
			rig.tap(KeyR)
			require.True(t, rig.app.Step())
		}
		rig.flyCourse(t)
		require.Equal(t, StateFinished, rig.app.State())
	}

	lb, _ := Resource[LeaderboardState](rig.app)
	assert.Len(t, lb.Course, 3)
	entries := rig.board.Course(context.Background(), 1, 3)
	assert.Equal(t, lb.Course, entries)
	for _, e := range entries {
		assert.Equal(t, "pilot", e.User)
		assert.Equal(t, uint64(1), e.Seed)
		assert.Equal(t, 3, e.Rings)
	}
	// Every run takes the same number of frames, so the times tie and the
	// latest run ranks last.
	assert.Equal(t, 3, lb.Rank)
}

func TestLeaderboardModule_RejectedRun(t *testing.T) {
	store := kvstore.NewMemory()
	board := leaderboard.New(store)
	clock := &fakeClock{now: time.Unix(0, 0)}
	// A frozen clock makes the run take zero seconds, which cannot be ranked.
	app := NewGame(GameModule{Config: smallCourseConfig(), Board: board, Now: clock.Now, Sleep: func(time.Duration) {}})
	app.Start()
	queue, _ := Resource[InputQueue](app)
	rig := &gameRig{app: app, clock: clock, queue: queue, board: board}

	rig.startRun(t)
	rig.flyCourse(t)
	require.Equal(t, StateFinished, app.State())

	lb, _ := Resource[LeaderboardState](app)
	assert.ErrorIs(t, lb.Err, leaderboard.ErrInvalidEntry)
	assert.Zero(t, lb.Rank)
	assert.Empty(t, lb.Course)
}
