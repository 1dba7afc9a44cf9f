package ringrun

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/ringrun/waypoint"
)

// HudIndicators is what the front end draws for the rings ahead: one
// indicator per tracked ring, in course order.
type HudIndicators struct {
	Items    []waypoint.Indicator
	Viewport waypoint.Viewport
	// ArrowSize is the drawn glyph size in pixels. A front end may change it;
	// the screen edge padding follows.
	ArrowSize float64
}

type WaypointModule struct {
	Indicators IndicatorConfig
}

type waypointSettings struct {
	cfg IndicatorConfig
}

func (m WaypointModule) Install(app *App, cmd *Commands) {
	tracker := waypoint.NewTracker(waypoint.PadFor(m.Indicators.ArrowSize, m.Indicators.Margin), m.Indicators.Alpha)
	if m.Indicators.FrameRateIndependent && m.Indicators.ReferenceFPS > 0 {
		tracker.UseFrameTime(1 / m.Indicators.ReferenceFPS)
	}
	cmd.AddResources(tracker, &HudIndicators{ArrowSize: m.Indicators.ArrowSize}, &waypointSettings{cfg: m.Indicators})

	app.UseSystem(System(waypointResetSystem).InStage(PreUpdate).InState(OnEnter(StatePlaying)))
	app.UseSystem(System(waypointSystem).InStage(PreRender).InState(OnExecute(StatePlaying)))
	app.UseSystem(System(waypointResetSystem).InStage(PreUpdate).InState(OnExit(StatePlaying)))
}

// A new course means new ring ids; stale smoothing state must not carry over.
func waypointResetSystem(tracker *waypoint.Tracker, hud *HudIndicators) {
	tracker.Reset()
	hud.Items = nil
}

func waypointSystem(cmd *Commands, tracker *waypoint.Tracker, hud *HudIndicators, settings *waypointSettings, input *Input, course *CourseState, t *Time) {
	vp := waypoint.Viewport{Width: float64(input.WindowWidth), Height: float64(input.WindowHeight)}
	hud.Viewport = vp
	if vp.Empty() {
		hud.Items = hud.Items[:0]
		return
	}

	var cam *CameraComponent
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, c *CameraComponent) bool {
		cam = c
		return false
	})
	if cam == nil {
		return
	}

	if pad := waypoint.PadFor(hud.ArrowSize, settings.cfg.Margin); pad != tracker.Pad() {
		tracker.SetPad(pad)
	}
	targets := RingTargets(cmd, course, cam.Position, settings.cfg)
	frame := waypoint.Frame{
		View:     cam.ViewMatrix(),
		Proj:     cam.ProjectionMatrix(vp.Width / vp.Height),
		Viewport: vp,
	}
	if settings.cfg.FrameRateIndependent {
		hud.Items = tracker.UpdateDt(targets, frame, t.Seconds())
	} else {
		hud.Items = tracker.Update(targets, frame)
	}
}

// RingTargets returns the next lookahead unpassed rings in course order. The
// ring to fly through next gets the primary color.
func RingTargets(cmd *Commands, course *CourseState, from mgl64.Vec3, cfg IndicatorConfig) []waypoint.Target {
	lookahead := max(cfg.Lookahead, 1)
	rings := make([]*RingComponent, lookahead)

	MakeQuery1[RingComponent](cmd).Map(func(eid EntityId, ring *RingComponent) bool {
		if ring.Passed {
			return true
		}
		if slot := ring.Index - course.Next; slot >= 0 && slot < lookahead {
			rings[slot] = ring
		}
		return true
	})

	targets := make([]waypoint.Target, 0, lookahead)
	for slot, ring := range rings {
		if ring == nil {
			continue
		}
		color := cfg.NextColor
		if slot == 0 {
			color = cfg.Color
		}
		targets = append(targets, waypoint.Target{
			ID:       ring.ID,
			Position: ring.Position,
			Color:    color,
			Label:    fmt.Sprintf("%d/%d · %.0fm", ring.Index+1, course.RingCount, ring.Position.Sub(from).Len()),
		})
	}
	return targets
}

type LabelBox struct {
	X, Y, W, H float64
}

// PlaceLabel centers the indicator's label just below its glyph and keeps it
// inside the viewport.
func PlaceLabel(ind waypoint.Indicator, arrowSize float64, vp waypoint.Viewport, m TextMetrics) LabelBox {
	w, h := m.MeasureText(ind.Label, 1)
	box := LabelBox{
		X: ind.Anchor.X() - w/2,
		Y: ind.Anchor.Y() + arrowSize/2,
		W: w,
		H: h,
	}
	box.X = mgl64.Clamp(box.X, 0, max(vp.Width-w, 0))
	box.Y = mgl64.Clamp(box.Y, 0, max(vp.Height-h, 0))
	return box
}
