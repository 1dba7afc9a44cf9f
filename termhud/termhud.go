// Package termhud is a terminal front end: it feeds tcell events into the
// game's input queue and draws rings, edge indicators and UI as text.
package termhud

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/gekko3d/ringrun"
	"github.com/gekko3d/ringrun/waypoint"
)

// Module draws onto Screen, which the caller has already initialized and
// will Fini. Cell sizes are the pixels one terminal cell stands for.
type Module struct {
	Screen     tcell.Screen
	CellWidth  int
	CellHeight int
}

type termState struct {
	screen  tcell.Screen
	surface *Surface
}

func (m Module) Install(app *ringrun.App, cmd *ringrun.Commands) {
	queue, ok := ringrun.Resource[ringrun.InputQueue](app)
	if !ok {
		panic("termhud needs an InputQueue resource; install the game first")
	}
	ui, ok := ringrun.Resource[ringrun.UiSurface](app)
	if !ok {
		panic("termhud needs a UiSurface resource; install the game first")
	}

	hud, ok := ringrun.Resource[ringrun.HudIndicators](app)
	if !ok {
		panic("termhud needs a HudIndicators resource; install the game first")
	}

	surface := NewSurface(m.Screen, float64(max(m.CellWidth, 1)), float64(max(m.CellHeight, 1)))
	ui.Surface = surface
	// Arrows are a single cell.
	hud.ArrowSize = surface.cellH
	cmd.AddResources(&termState{screen: m.Screen, surface: surface})

	m.Screen.EnableMouse(tcell.MouseMotionEvents)
	m.Screen.HideCursor()

	w, h := m.Screen.Size()
	queue.Push(ringrun.InputEvent{
		Kind:   ringrun.EventResize,
		Width:  w * int(surface.cellW),
		Height: h * int(surface.cellH),
	})
	go poll(m.Screen, queue, surface.cellW, surface.cellH)

	app.UseSystem(ringrun.System(renderSystem).InStage(ringrun.Render).RunAlways())
	app.UseSystem(ringrun.System(showSystem).InStage(ringrun.PostRender).RunAlways())
}

// poll runs until the screen is finalized.
func poll(screen tcell.Screen, queue *ringrun.InputQueue, cellW, cellH float64) {
	var buttons tcell.ButtonMask
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		if events := TranslateEvent(ev, cellW, cellH, &buttons); len(events) > 0 {
			queue.Push(events...)
		}
	}
}

var specialKeys = map[tcell.Key]int{
	tcell.KeyEnter:      ringrun.KeyEnter,
	tcell.KeyEscape:     ringrun.KeyEscape,
	tcell.KeyCtrlC:      ringrun.KeyEscape,
	tcell.KeyTab:        ringrun.KeyTab,
	tcell.KeyBackspace:  ringrun.KeyBackspace,
	tcell.KeyBackspace2: ringrun.KeyBackspace,
	tcell.KeyDelete:     ringrun.KeyDelete,
	tcell.KeyUp:         ringrun.KeyUp,
	tcell.KeyDown:       ringrun.KeyDown,
	tcell.KeyLeft:       ringrun.KeyLeft,
	tcell.KeyRight:      ringrun.KeyRight,
	tcell.KeyCtrlSpace:  ringrun.KeyControl,
}

var mouseButtons = []struct {
	mask tcell.ButtonMask
	key  int
}{
	{tcell.Button1, ringrun.MouseButtonLeft},
	{tcell.Button2, ringrun.MouseButtonRight},
	{tcell.Button3, ringrun.MouseButtonMiddle},
}

// TranslateEvent maps one tcell event to input events. Terminals report key
// presses only, so keys become taps; an upper-case letter also taps Shift.
// buttons carries the mouse button state between calls.
func TranslateEvent(ev tcell.Event, cellW, cellH float64, buttons *tcell.ButtonMask) []ringrun.InputEvent {
	tap := func(key int) ringrun.InputEvent {
		return ringrun.InputEvent{Kind: ringrun.EventKeyTap, Key: key}
	}

	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() != tcell.KeyRune {
			key, ok := specialKeys[ev.Key()]
			if !ok {
				return nil
			}
			return []ringrun.InputEvent{tap(key)}
		}

		r := ev.Rune()
		out := []ringrun.InputEvent{{Kind: ringrun.EventChar, Rune: r}}
		if key, ok := runeKey(r); ok {
			out = append(out, tap(key))
		}
		if unicode.IsUpper(r) || ev.Modifiers()&tcell.ModShift != 0 {
			out = append(out, tap(ringrun.KeyShift))
		}
		return out

	case *tcell.EventMouse:
		cx, cy := ev.Position()
		x, y := (float64(cx)+0.5)*cellW, (float64(cy)+0.5)*cellH
		out := []ringrun.InputEvent{{Kind: ringrun.EventMouseMove, X: x, Y: y}}

		now := ev.Buttons()
		for _, b := range mouseButtons {
			was, is := *buttons&b.mask != 0, now&b.mask != 0
			switch {
			case is && !was:
				out = append(out, ringrun.InputEvent{Kind: ringrun.EventMouseDown, Key: b.key, X: x, Y: y})
			case was && !is:
				out = append(out, ringrun.InputEvent{Kind: ringrun.EventMouseUp, Key: b.key, X: x, Y: y})
			}
		}
		*buttons = now
		return out

	case *tcell.EventResize:
		w, h := ev.Size()
		return []ringrun.InputEvent{{Kind: ringrun.EventResize, Width: int(float64(w) * cellW), Height: int(float64(h) * cellH)}}
	}
	return nil
}

func runeKey(r rune) (int, bool) {
	r = unicode.ToLower(r)
	switch {
	case r >= 'a' && r <= 'z':
		return ringrun.KeyA + int(r-'a'), true
	case r >= '0' && r <= '9':
		return ringrun.Key0 + int(r-'0'), true
	case r == ' ':
		return ringrun.KeySpace, true
	}
	return 0, false
}

var arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// ArrowRune picks the arrow closest to a screen-space rotation, where 0
// points right and positive angles turn clockwise.
func ArrowRune(rotation float64) rune {
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return arrows[0]
	}
	octant := int(math.Round(rotation/(math.Pi/4))) % 8
	if octant < 0 {
		octant += 8
	}
	return arrows[octant]
}

func renderSystem(cmd *ringrun.Commands, term *termState, hud *ringrun.HudIndicators, course *ringrun.CourseState) {
	term.screen.Clear()
	if cmd.State() != ringrun.StatePlaying {
		return
	}

	var cam *ringrun.CameraComponent
	ringrun.MakeQuery1[ringrun.CameraComponent](cmd).Map(func(eid ringrun.EntityId, c *ringrun.CameraComponent) bool {
		cam = c
		return false
	})
	vp := hud.Viewport
	if cam == nil || vp.Empty() {
		return
	}

	view, proj := cam.ViewMatrix(), cam.ProjectionMatrix(vp.Width/vp.Height)
	s := term.surface
	ringrun.MakeQuery1[ringrun.RingComponent](cmd).Map(func(eid ringrun.EntityId, ring *ringrun.RingComponent) bool {
		if ring.Passed {
			return true
		}
		pos := waypoint.Project(ring.Position, view, proj, vp)
		if waypoint.IsOffscreen(pos, vp) {
			return true
		}
		glyph, color := 'o', "#64748b"
		if ring.Index == course.Next {
			glyph, color = 'O', "#22d3ee"
		}
		s.DrawRune(glyph, pos.X, pos.Y, color)
		return true
	})
	s.DrawRune('+', vp.Width/2, vp.Height/2, "#94a3b8")

	for _, ind := range hud.Items {
		if !ind.Offscreen {
			continue
		}
		s.DrawRune(ArrowRune(ind.Rotation), ind.Anchor.X(), ind.Anchor.Y(), ind.Color)
		box := ringrun.PlaceLabel(ind, hud.ArrowSize, vp, s)
		s.DrawText(ind.Label, box.X, box.Y, 1, ind.Color)
	}
}

func showSystem(term *termState) {
	term.screen.Show()
}

// Surface maps pixel coordinates onto terminal cells.
type Surface struct {
	screen       tcell.Screen
	cellW, cellH float64
}

func NewSurface(screen tcell.Screen, cellW, cellH float64) *Surface {
	return &Surface{screen: screen, cellW: cellW, cellH: cellH}
}

// MeasureText ignores scale: a terminal cannot resize glyphs.
func (s *Surface) MeasureText(text string, scale float64) (float64, float64) {
	return float64(utf8.RuneCountInString(text)) * s.cellW, s.cellH
}

func (s *Surface) DrawText(text string, x, y, scale float64, color string) {
	col, row := s.cell(x, y)
	style := styleFor(color)
	for _, r := range text {
		s.screen.SetContent(col, row, r, nil, style)
		col++
	}
}

// DrawRune draws a single glyph in the cell containing the pixel.
func (s *Surface) DrawRune(r rune, x, y float64, color string) {
	col, row := s.cell(x, y)
	s.screen.SetContent(col, row, r, nil, styleFor(color))
}

// cell returns the cell containing the pixel, clamped to the screen.
func (s *Surface) cell(x, y float64) (int, int) {
	w, h := s.screen.Size()
	col := int(math.Floor(x / s.cellW))
	row := int(math.Floor(y / s.cellH))
	return min(max(col, 0), max(w-1, 0)), min(max(row, 0), max(h-1, 0))
}

func styleFor(color string) tcell.Style {
	style := tcell.StyleDefault
	if color == "" {
		return style
	}
	return style.Foreground(tcell.GetColor(color))
}
