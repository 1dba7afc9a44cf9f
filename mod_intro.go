package ringrun

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxUsernameLength = 32

// IntroUi marks entities owned by the intro overlay.
type IntroUi struct{}

// introRole tells the layout which line of the overlay an entity is.
type introRole struct {
	Line int
}

const (
	introTitle = iota
	introHints
	introUsername
	introButton
)

var (
	desktopHints = []string{
		"W / A / S / D - move forward / left / back / right",
		"Mouse - steer toward the pointer",
		"Shift - boost",
		"Space / Ctrl - climb / descend",
		"Esc - quit",
	}
	touchHints = []string{
		"Touch & drag - look around",
	}
)

// IntroModule shows the controls and a name field until the player starts.
type IntroModule struct {
	Touch bool
}

type introSettings struct {
	hints []string
}

func (m IntroModule) Install(app *App, cmd *Commands) {
	hints := desktopHints
	if m.Touch {
		hints = touchHints
	}
	cmd.AddResources(&introSettings{hints: hints})

	app.UseSystem(System(introSpawnSystem).InStage(PreUpdate).InState(OnEnter(StateIntro)))
	app.UseSystem(System(introSystem).InStage(Update).InState(OnExecute(StateIntro)))
	app.UseSystem(System(introLayoutSystem).InStage(PreRender).InState(OnExecute(StateIntro)))
	app.UseSystem(System(despawn[IntroUi]).InStage(PreUpdate).InState(OnExit(StateIntro)))
}

func introSpawnSystem(cmd *Commands, settings *introSettings) {
	cmd.AddEntity(IntroUi{}, introRole{Line: introTitle}, TextComponent{Text: "Controls", Color: uiHighlightColor})
	cmd.AddEntity(IntroUi{}, introRole{Line: introHints}, TextComponent{Text: strings.Join(settings.hints, "\n")})
	cmd.AddEntity(IntroUi{}, introRole{Line: introUsername}, TextComponent{})
	cmd.AddEntity(IntroUi{}, introRole{Line: introButton}, UiButton{Label: "Start"})
}

// EditUsername drops the last backspaces runes of name, then appends typed.
func EditUsername(name string, typed []rune, backspaces int) string {
	for ; backspaces > 0 && name != ""; backspaces-- {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	for _, r := range typed {
		if !unicode.IsPrint(r) || utf8.RuneCountInString(name) >= maxUsernameLength {
			continue
		}
		name += string(r)
	}
	return name
}

// backspaces counts terminal taps, or one for a held key going down.
func backspaces(input *Input) int {
	if n := input.Taps[KeyBackspace]; n > 0 {
		return n
	}
	if input.JustPressed[KeyBackspace] {
		return 1
	}
	return 0
}

func introSystem(cmd *Commands, input *Input, player *Player) {
	player.Username = EditUsername(player.Username, input.CharBuffer, backspaces(input))

	start := input.JustPressed[KeyEnter]
	MakeQuery2[IntroUi, UiButton](cmd).Map(func(eid EntityId, _ *IntroUi, btn *UiButton) bool {
		start = start || btn.Clicked
		return true
	})

	if start {
		player.Username = strings.TrimSpace(player.Username)
		if player.Username == "" {
			player.Username = "pilot"
		}
		cmd.ChangeState(StatePlaying)
	}
}

// introLayoutSystem centers the overlay in the current window.
func introLayoutSystem(cmd *Commands, input *Input, player *Player, ui *UiSurface, settings *introSettings) {
	m := ui.Metrics()
	w, h := float64(input.WindowWidth), float64(input.WindowHeight)
	_, lineH := m.MeasureText("|", 1)
	hints := float64(len(settings.hints))

	// Title, blank, hints, blank, name, blank, three-line button.
	top := h/2 - lineH*(hints+8)/2
	MakeQuery2[introRole, TextComponent](cmd).Map(func(eid EntityId, role *introRole, text *TextComponent) bool {
		if role.Line == introUsername {
			text.Text = "Name: " + player.Username + "_"
		}
		tw := widestLine(text.Text, m)
		y := top
		switch role.Line {
		case introHints:
			y += 2 * lineH
		case introUsername:
			y += (hints + 3) * lineH
		}
		text.Position = [2]float64{max((w-tw)/2, 0), max(y, 0)}
		return true
	})

	MakeQuery2[introRole, UiButton](cmd).Map(func(eid EntityId, role *introRole, btn *UiButton) bool {
		bw, _ := ButtonSize(btn, m)
		btn.Position = [2]float64{max((w-bw)/2, 0), max(top+(hints+5)*lineH, 0)}
		return true
	})
}

func widestLine(text string, m TextMetrics) float64 {
	widest := 0.0
	for _, line := range strings.Split(text, "\n") {
		if lw, _ := m.MeasureText(line, 1); lw > widest {
			widest = lw
		}
	}
	return widest
}
