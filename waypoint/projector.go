// Package waypoint projects world-space targets into screen space and places
// edge arrows for the ones that fall outside the view.
package waypoint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ScreenPosition is a projected point. X and Y are device pixels with the
// origin at the top-left corner. Z is NDC depth; anything outside [-1, 1] is
// behind the camera or past the far plane.
type ScreenPosition struct {
	X, Y, Z float64
}

type Viewport struct {
	Width  float64
	Height float64
}

func (v Viewport) Center() mgl64.Vec2 {
	return mgl64.Vec2{v.Width / 2, v.Height / 2}
}

func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

const (
	// |w| below this is treated as lying on the eye plane.
	eyePlaneEpsilon = 1e-9
	// Depth reported for eye-plane points. Outside [-1, 1] so IsOffscreen holds.
	eyePlaneDepth = 2.0
)

// Project maps a world-space point through view and projection into screen
// space. It never returns NaN or Inf: points on the eye plane keep their
// direction as a large finite offset and get a depth outside [-1, 1].
func Project(world mgl64.Vec3, view, proj mgl64.Mat4, vp Viewport) ScreenPosition {
	clip := proj.Mul4(view).Mul4x1(world.Vec4(1))

	w := clip.W()
	degenerate := math.Abs(w) < eyePlaneEpsilon || math.IsNaN(w)
	if degenerate {
		if w < 0 {
			w = -eyePlaneEpsilon
		} else {
			w = eyePlaneEpsilon
		}
	}

	ndcX := clip.X() / w
	ndcY := clip.Y() / w
	ndcZ := clip.Z() / w
	if degenerate {
		ndcZ = eyePlaneDepth
	}

	pos := ScreenPosition{
		X: (ndcX + 1) * 0.5 * vp.Width,
		Y: (1 - ndcY) * 0.5 * vp.Height,
		Z: ndcZ,
	}

	if !finite(pos.X) || !finite(pos.Y) {
		c := vp.Center()
		pos.X, pos.Y = c.X(), c.Y()
		pos.Z = eyePlaneDepth
	}
	if !finite(pos.Z) {
		pos.Z = eyePlaneDepth
	}
	return pos
}

// IsOffscreen reports whether pos is outside the viewport rectangle or outside
// the depth range. Both cases need an edge indicator.
func IsOffscreen(pos ScreenPosition, vp Viewport) bool {
	return pos.Z > 1 || pos.Z < -1 ||
		pos.X < 0 || pos.X > vp.Width ||
		pos.Y < 0 || pos.Y > vp.Height
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
