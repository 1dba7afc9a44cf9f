package waypoint

import "github.com/go-gl/mathgl/mgl64"

// Target is a world-space point of interest. IDs must be unique among the
// targets passed to a single Update; the smoother is keyed by them.
type Target struct {
	ID       string
	Position mgl64.Vec3
	Color    string
	Label    string
}

// Frame is the camera and surface state for one rendered frame.
type Frame struct {
	View     mgl64.Mat4
	Proj     mgl64.Mat4
	Viewport Viewport
}

// Tracker turns targets into overlay indicators once per frame: visible
// targets are emitted in place, off-screen ones are clamped to the padded
// border and smoothed.
type Tracker struct {
	pad      float64
	smoother *Smoother
	refDt    float64
}

func NewTracker(pad, alpha float64) *Tracker {
	return &Tracker{
		pad:      pad,
		smoother: NewSmoother(alpha),
	}
}

func (t *Tracker) Pad() float64 { return t.pad }

func (t *Tracker) SetPad(pad float64) { t.pad = pad }

// UseFrameTime makes UpdateDt rescale alpha against refDt seconds per frame.
// Zero disables the rescale.
func (t *Tracker) UseFrameTime(refDt float64) { t.refDt = refDt }

// Reset forgets all smoothing state, e.g. when a new course is generated.
func (t *Tracker) Reset() { t.smoother.Reset() }

func (t *Tracker) Smoother() *Smoother { return t.smoother }

// Update returns one indicator per target, in target order.
func (t *Tracker) Update(targets []Target, frame Frame) []Indicator {
	return t.update(targets, frame, func(raw []Indicator) []Indicator {
		return t.smoother.Smooth(raw)
	})
}

// UpdateDt is Update for a frame that took dt seconds.
func (t *Tracker) UpdateDt(targets []Target, frame Frame, dt float64) []Indicator {
	if t.refDt <= 0 {
		return t.Update(targets, frame)
	}
	return t.update(targets, frame, func(raw []Indicator) []Indicator {
		return t.smoother.SmoothDt(raw, dt, t.refDt)
	})
}

func (t *Tracker) update(targets []Target, frame Frame, smooth func([]Indicator) []Indicator) []Indicator {
	out := make([]Indicator, len(targets))
	offIdx := make([]int, 0, len(targets))
	raw := make([]Indicator, 0, len(targets))

	for i, tgt := range targets {
		scr := Project(tgt.Position, frame.View, frame.Proj, frame.Viewport)
		ind := Indicator{
			ID:    tgt.ID,
			Color: tgt.Color,
			Label: tgt.Label,
		}

		if !IsOffscreen(scr, frame.Viewport) {
			ind.Anchor = mgl64.Vec2{scr.X, scr.Y}
			out[i] = ind
			continue
		}

		p := Resolve(scr, frame.Viewport, t.pad)
		ind.Anchor = p.Anchor
		ind.Rotation = p.Rotation
		ind.Offscreen = true
		raw = append(raw, ind)
		offIdx = append(offIdx, i)
	}

	// Smooth even when nothing is off-screen, so stale ids are evicted.
	smoothed := smooth(raw)
	for j, i := range offIdx {
		out[i] = smoothed[j]
	}
	return out
}
