package ringrun

import (
	"fmt"
	"strconv"
	"time"
)

// HudText marks the in-run status line.
type HudText struct{}

// HudToast marks the short-lived message shown when a ring is passed.
type HudToast struct{}

const toastDuration = time.Second

type hudState struct {
	announced int
}

// ResultsUi marks entities of the results screen.
type ResultsUi struct{}

type resultsRole struct {
	Line int
}

const (
	resultsSummary = iota
	resultsTable
	resultsHint
)

// Names are stored up to 32 runes; the table shows fewer to fit the screen.
const resultsNameWidth = 16

const resultsHintText = "R / Enter - fly again    N - new course    Esc - quit"

// HudModule shows progress while playing and the leaderboard afterwards.
type HudModule struct{}

func (HudModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&hudState{})
	app.UseSystem(System(hudSpawnSystem).InStage(PreUpdate).InState(OnEnter(StatePlaying)))
	app.UseSystem(System(hudSystem).InStage(PreRender).InState(OnExecute(StatePlaying)))
	app.UseSystem(System(despawn[HudText]).InStage(PreUpdate).InState(OnExit(StatePlaying)))
	app.UseSystem(System(despawn[HudToast]).InStage(PreUpdate).InState(OnExit(StatePlaying)))

	app.UseSystem(System(resultsSpawnSystem).InStage(Update).InState(OnEnter(StateFinished)))
	app.UseSystem(System(resultsLayoutSystem).InStage(PreRender).InState(OnExecute(StateFinished)))
	app.UseSystem(System(despawn[ResultsUi]).InStage(PreUpdate).InState(OnExit(StateFinished)))
}

// despawn removes every entity carrying the marker component M.
func despawn[M any](cmd *Commands) {
	MakeQuery1[M](cmd).Map(func(eid EntityId, _ *M) bool {
		cmd.RemoveEntity(eid)
		return true
	})
}

// HudLine is the status line shown during a run.
func HudLine(course *CourseState) string {
	return fmt.Sprintf("Rings %s   Time %.1fs   Course %d", course.Progress(), course.Elapsed.Seconds(), course.Seed)
}

func hudSpawnSystem(cmd *Commands, state *hudState) {
	state.announced = 0
	cmd.AddEntity(HudText{}, TextComponent{})
}

func hudSystem(cmd *Commands, course *CourseState, state *hudState, input *Input, ui *UiSurface) {
	m := ui.Metrics()
	_, lineH := m.MeasureText("|", 1)
	MakeQuery2[HudText, TextComponent](cmd).Map(func(eid EntityId, _ *HudText, text *TextComponent) bool {
		text.Text = HudLine(course)
		text.Position = [2]float64{lineH / 2, lineH / 2}
		return true
	})

	if course.Next > state.announced {
		state.announced = course.Next
		msg := "Ring " + course.Progress()
		tw, _ := m.MeasureText(msg, 1)
		cmd.AddEntity(
			HudToast{},
			TextComponent{Text: msg, Color: uiHighlightColor, Position: [2]float64{max((float64(input.WindowWidth)-tw)/2, 0), 2 * lineH}},
			LifetimeComponent{TimeLeft: toastDuration},
		)
	}
}

// ResultsTable lists the course leaderboard with the player's rank marked.
func ResultsTable(lb *LeaderboardState) UiTable {
	table := UiTable{Headers: []string{"#", "Pilot", "Time"}, Highlight: lb.Rank}
	for i, e := range lb.Course {
		table.Rows = append(table.Rows, []string{strconv.Itoa(i + 1), truncate(e.User, resultsNameWidth), fmt.Sprintf("%.2fs", e.Time)})
	}
	return table
}

func resultsSummaryText(lb *LeaderboardState, player *Player) string {
	switch {
	case lb.Rank > 0:
		return fmt.Sprintf("%s finished in %.2fs, rank #%d", player.Username, lb.Time, lb.Rank)
	case lb.Board == nil || lb.Err != nil:
		return fmt.Sprintf("%s finished in %.2fs", player.Username, lb.Time)
	default:
		return fmt.Sprintf("%s finished in %.2fs, not in the top %d", player.Username, lb.Time, len(lb.Course))
	}
}

func resultsSpawnSystem(cmd *Commands, lb *LeaderboardState, player *Player) {
	cmd.AddEntity(ResultsUi{}, resultsRole{Line: resultsSummary}, TextComponent{Text: resultsSummaryText(lb, player), Color: uiHighlightColor})
	if len(lb.Course) > 0 {
		cmd.AddEntity(ResultsUi{}, resultsRole{Line: resultsTable}, ResultsTable(lb))
	}
	cmd.AddEntity(ResultsUi{}, resultsRole{Line: resultsHint}, TextComponent{Text: resultsHintText})
}

func resultsLayoutSystem(cmd *Commands, input *Input, ui *UiSurface) {
	m := ui.Metrics()
	w, h := float64(input.WindowWidth), float64(input.WindowHeight)
	_, lineH := m.MeasureText("|", 1)

	tableH := 0.0
	MakeQuery2[resultsRole, UiTable](cmd).Map(func(eid EntityId, _ *resultsRole, table *UiTable) bool {
		layout := LayoutTable(table, m)
		tableH = layout.Height
		return true
	})

	top := max(h/2-(tableH+4*lineH)/2, 0)
	MakeQuery2[resultsRole, UiTable](cmd).Map(func(eid EntityId, _ *resultsRole, table *UiTable) bool {
		layout := LayoutTable(table, m)
		table.Position = [2]float64{max((w-layout.Width)/2, 0), top + 2*lineH}
		return true
	})
	MakeQuery2[resultsRole, TextComponent](cmd).Map(func(eid EntityId, role *resultsRole, text *TextComponent) bool {
		tw, _ := m.MeasureText(text.Text, 1)
		y := top
		if role.Line == resultsHint {
			y = top + tableH + 3*lineH
		}
		text.Position = [2]float64{max((w-tw)/2, 0), y}
		return true
	})
}
