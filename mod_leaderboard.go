package ringrun

import (
	"context"

	"github.com/gekko3d/ringrun/leaderboard"
)

// LeaderboardState is the outcome of the last finished run.
type LeaderboardState struct {
	Board *leaderboard.Board
	// Rank on the course list, 0 if the run did not make it.
	Rank   int
	Time   float64
	Course []leaderboard.Entry
	Err    error

	userLoaded bool
}

// LeaderboardModule records finished runs and remembers the player name.
// Without a Board it keeps only the last result.
type LeaderboardModule struct {
	Board *leaderboard.Board
}

func (m LeaderboardModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&LeaderboardState{Board: m.Board})
	app.UseSystem(System(leaderboardLoadUserSystem).InStage(Prelude).InState(OnEnter(StateIntro)))
	app.UseSystem(System(leaderboardSaveUserSystem).InStage(Prelude).InState(OnExit(StateIntro)))
	app.UseSystem(System(leaderboardRecordSystem).InStage(PreUpdate).InState(OnEnter(StateFinished)))
}

func leaderboardLoadUserSystem(lb *LeaderboardState, player *Player, cmd *Commands) {
	if lb.Board == nil || lb.userLoaded {
		return
	}
	lb.userLoaded = true
	name, err := lb.Board.Username(context.Background())
	if err != nil {
		cmd.app.Logger().Warnf("failed to load username: %v", err)
		return
	}
	if name != "" {
		player.Username = name
	}
}

func leaderboardSaveUserSystem(lb *LeaderboardState, player *Player, cmd *Commands) {
	if lb.Board == nil {
		return
	}
	if err := lb.Board.SetUsername(context.Background(), player.Username); err != nil {
		cmd.app.Logger().Warnf("failed to save username: %v", err)
	}
}

func leaderboardRecordSystem(lb *LeaderboardState, course *CourseState, player *Player, cmd *Commands) {
	lb.Time = course.Elapsed.Seconds()
	lb.Rank, lb.Course, lb.Err = 0, nil, nil
	if lb.Board == nil {
		return
	}

	ctx := context.Background()
	lb.Rank, lb.Err = lb.Board.Record(ctx, leaderboard.Entry{
		User:  player.Username,
		Time:  lb.Time,
		Seed:  course.Seed,
		Rings: course.RingCount,
	})
	if lb.Err != nil {
		cmd.app.Logger().Warnf("run not recorded: %v", lb.Err)
	}
	lb.Course = lb.Board.Course(ctx, course.Seed, course.RingCount)
}
