package waypoint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Placement is where an edge arrow sits and where it points.
//
// Rotation is a screen-space angle, atan2(dy, dx) with y growing downward:
// 0 points right, +Pi/2 points down, Pi points left, -Pi/2 points up.
type Placement struct {
	Anchor   mgl64.Vec2
	Rotation float64
}

// PadFor returns the inset of the padded rectangle for an arrow glyph of the
// given size plus a margin.
func PadFor(arrowSize, margin float64) float64 {
	return arrowSize/2 + margin
}

// Resolve clamps an off-screen projection onto the rectangle inset by pad from
// every viewport edge, along the ray from the viewport center.
//
// The anchor always lands on one of the four padded edges. A zero or
// non-finite offset from the center falls back to the center with rotation 0.
func Resolve(raw ScreenPosition, vp Viewport, pad float64) Placement {
	center := vp.Center()
	cx, cy := center.X(), center.Y()

	pad = math.Max(0, math.Min(pad, math.Min(cx, cy)))

	dx := raw.X - cx
	dy := raw.Y - cy
	if !finite(dx) || !finite(dy) || (dx == 0 && dy == 0) {
		return Placement{Anchor: center, Rotation: 0}
	}

	scaleX := math.Inf(1)
	if dx != 0 {
		scaleX = (cx - pad) / math.Abs(dx)
	}
	scaleY := math.Inf(1)
	if dy != 0 {
		scaleY = (cy - pad) / math.Abs(dy)
	}
	s := math.Min(scaleX, scaleY)

	return Placement{
		Anchor:   mgl64.Vec2{cx + dx*s, cy + dy*s},
		Rotation: math.Atan2(dy, dx),
	}
}
