package waypoint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultAlpha is the fraction of the remaining gap closed per frame.
const DefaultAlpha = 0.25

// Indicator is the per-target, per-frame overlay state.
type Indicator struct {
	ID        string
	Anchor    mgl64.Vec2
	Rotation  float64
	Offscreen bool
	Color     string
	Label     string
}

// Smooth runs one step of a first-order exponential filter over raw, keyed by
// indicator id.
//
// An id with no memory is emitted unchanged. An id with memory moves alpha of
// the way from the remembered value to the raw one, for both anchor and
// rotation. Rotation is interpolated linearly, without angle wraparound.
// Ids absent from raw are dropped. memory is not modified; the returned map
// replaces it.
func Smooth(raw []Indicator, memory map[string]Indicator, alpha float64) ([]Indicator, map[string]Indicator) {
	alpha = clamp01(alpha)

	out := make([]Indicator, 0, len(raw))
	next := make(map[string]Indicator, len(raw))

	for _, r := range raw {
		s := r
		if p, ok := memory[r.ID]; ok {
			s.Anchor = mgl64.Vec2{
				lerp(p.Anchor.X(), r.Anchor.X(), alpha),
				lerp(p.Anchor.Y(), r.Anchor.Y(), alpha),
			}
			s.Rotation = lerp(p.Rotation, r.Rotation, alpha)
		}
		out = append(out, s)
		next[r.ID] = s
	}

	return out, next
}

// FrameAlpha rescales a per-frame alpha tuned at refDt to a frame that took dt,
// so the filter closes the same fraction of the gap per unit time.
func FrameAlpha(alpha, dt, refDt float64) float64 {
	alpha = clamp01(alpha)
	if dt <= 0 || refDt <= 0 {
		return alpha
	}
	return 1 - math.Pow(1-alpha, dt/refDt)
}

// Smoother owns the id → indicator memory between frames. It is not safe
// for concurrent use; call it from the frame update only.
type Smoother struct {
	Alpha  float64
	memory map[string]Indicator
}

func NewSmoother(alpha float64) *Smoother {
	return &Smoother{
		Alpha:  alpha,
		memory: make(map[string]Indicator),
	}
}

func (s *Smoother) Smooth(raw []Indicator) []Indicator {
	out, next := Smooth(raw, s.memory, s.Alpha)
	s.memory = next
	return out
}

// SmoothDt is Smooth with alpha rescaled for the elapsed frame time.
func (s *Smoother) SmoothDt(raw []Indicator, dt, refDt float64) []Indicator {
	out, next := Smooth(raw, s.memory, FrameAlpha(s.Alpha, dt, refDt))
	s.memory = next
	return out
}

func (s *Smoother) Lookup(id string) (Indicator, bool) {
	ind, ok := s.memory[id]
	return ind, ok
}

func (s *Smoother) Len() int {
	return len(s.memory)
}

func (s *Smoother) Reset() {
	s.memory = make(map[string]Indicator)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultAlpha
	}
	return math.Max(0, math.Min(1, v))
}
