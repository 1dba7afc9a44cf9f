package ringrun

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CameraComponent is a Y-up perspective camera. Yaw 0 looks down -Z and
// grows to the right; pitch grows upward. Angles are radians.
type CameraComponent struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
	FovY     float64
	Near     float64
	Far      float64
}

func (c *CameraComponent) Forward() mgl64.Vec3 {
	sy, cy := math.Sincos(c.Yaw)
	sp, cp := math.Sincos(c.Pitch)
	return mgl64.Vec3{sy * cp, sp, -cy * cp}
}

// Right ignores pitch so it stays defined when looking straight up or down.
func (c *CameraComponent) Right() mgl64.Vec3 {
	sy, cy := math.Sincos(c.Yaw)
	return mgl64.Vec3{cy, 0, sy}
}

func (c *CameraComponent) Up() mgl64.Vec3 {
	return c.Right().Cross(c.Forward())
}

func (c *CameraComponent) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Position.Add(c.Forward()), c.Up())
}

func (c *CameraComponent) ProjectionMatrix(aspect float64) mgl64.Mat4 {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	return mgl64.Perspective(c.FovY, aspect, c.Near, c.Far)
}
