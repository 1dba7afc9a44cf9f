package ringrun

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FlyingCameraModule steers every camera that also has a
// FlyingCameraComponent. Only runs in the given state when Stateful is set.
type FlyingCameraModule struct {
	Stateful bool
	State    State
}

func (m FlyingCameraModule) Install(app *App, cmd *Commands) {
	input := System(FlyingCameraInputSystem).InStage(Update)
	control := System(FlyingCameraControlSystem).InStage(Update)
	if m.Stateful {
		input = input.InState(OnExecute(m.State))
		control = control.InState(OnExecute(m.State))
	}
	app.UseSystem(input)
	app.UseSystem(control)
}

type FlyingCameraComponent struct {
	MoveSpeed float64
	LookSpeed float64
	// Fraction of the remaining rotation applied each frame.
	LookLerp float64
	Drag     float64
	Boost    float64

	StartPosition mgl64.Vec3
	StartYaw      float64
	StartPitch    float64

	Velocity    mgl64.Vec3
	TargetYaw   float64
	TargetPitch float64

	// Per-frame intent written by the input system. Move is in camera axes:
	// x right, y world up, z forward. Look is the pointer offset from the
	// screen center, each axis in [-1, 1].
	Move     mgl64.Vec3
	Look     mgl64.Vec2
	Boosting bool
}

// NewFlyingCamera returns a camera and its controller at the configured start pose.
func NewFlyingCamera(cfg CameraConfig) (CameraComponent, FlyingCameraComponent) {
	start := mgl64.Vec3(cfg.StartPosition)
	cam := CameraComponent{
		Position: start,
		FovY:     mgl64.DegToRad(cfg.FovDeg),
		Near:     cfg.Near,
		Far:      cfg.Far,
	}
	fly := FlyingCameraComponent{
		MoveSpeed:     cfg.MoveSpeed,
		LookSpeed:     cfg.LookSpeed,
		LookLerp:      cfg.LookLerp,
		Drag:          cfg.Drag,
		Boost:         cfg.Boost,
		StartPosition: start,
	}
	return cam, fly
}

// ResetFlyingCamera puts the camera back at its start pose and stops it.
func ResetFlyingCamera(cam *CameraComponent, fly *FlyingCameraComponent) {
	cam.Position = fly.StartPosition
	cam.Yaw, cam.Pitch = fly.StartYaw, fly.StartPitch
	fly.TargetYaw, fly.TargetPitch = fly.StartYaw, fly.StartPitch
	fly.Velocity = mgl64.Vec3{}
	fly.Move = mgl64.Vec3{}
	fly.Look = mgl64.Vec2{}
}

func FlyingCameraInputSystem(input *Input, cmd *Commands) {
	look := pointerOffset(input)

	MakeQuery1[FlyingCameraComponent](cmd).Map(func(eid EntityId, fly *FlyingCameraComponent) bool {
		fly.Move = mgl64.Vec3{}
		if input.Pressed[KeyW] {
			fly.Move[2] += 1
		}
		if input.Pressed[KeyS] {
			fly.Move[2] -= 1
		}
		if input.Pressed[KeyA] {
			fly.Move[0] -= 1
		}
		if input.Pressed[KeyD] {
			fly.Move[0] += 1
		}
		if input.Pressed[KeySpace] {
			fly.Move[1] += 1
		}
		if input.Pressed[KeyControl] {
			fly.Move[1] -= 1
		}
		fly.Boosting = input.Pressed[KeyShift]
		fly.Look = look
		return true
	})
}

func pointerOffset(input *Input) mgl64.Vec2 {
	if !input.HasPointer || input.WindowWidth <= 0 || input.WindowHeight <= 0 {
		return mgl64.Vec2{}
	}
	cx := float64(input.WindowWidth) / 2
	cy := float64(input.WindowHeight) / 2
	return mgl64.Vec2{
		mgl64.Clamp((input.MouseX-cx)/cx, -1, 1),
		mgl64.Clamp((input.MouseY-cy)/cy, -1, 1),
	}
}

func FlyingCameraControlSystem(cmd *Commands, t *Time) {
	dt := t.Seconds()
	if dt <= 0 {
		return
	}

	MakeQuery2[CameraComponent, FlyingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent) bool {
		// Pointer right of center turns right, below center looks down.
		fly.TargetYaw += fly.Look[0] * fly.LookSpeed * dt
		fly.TargetPitch = mgl64.Clamp(fly.TargetPitch-fly.Look[1]*fly.LookSpeed*dt, -math.Pi/2, math.Pi/2)
		cam.Yaw += (fly.TargetYaw - cam.Yaw) * fly.LookLerp
		cam.Pitch += (fly.TargetPitch - cam.Pitch) * fly.LookLerp

		speed := fly.MoveSpeed
		if fly.Boosting && fly.Boost > 0 {
			speed *= fly.Boost
		}
		wish := cam.Right().Mul(fly.Move[0]).
			Add(mgl64.Vec3{0, fly.Move[1], 0}).
			Add(cam.Forward().Mul(fly.Move[2]))

		if fly.Drag <= 0 {
			fly.Velocity = wish.Mul(speed)
		} else {
			// Exact solution of v' = (wish*speed - v)*drag over dt, so long
			// frames settle on the target velocity instead of overshooting.
			k := 1 - math.Exp(-fly.Drag*dt)
			fly.Velocity = fly.Velocity.Add(wish.Mul(speed).Sub(fly.Velocity).Mul(k))
		}
		cam.Position = cam.Position.Add(fly.Velocity.Mul(dt))
		return true
	})
}
