package ringrun

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

const (
	StateIntro State = iota
	StatePlaying
	StateFinished
	StateQuit
)

var courseNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ringrun/course"))

type RingComponent struct {
	// ID is stable for a given seed and index.
	ID       string
	Index    int
	Position mgl64.Vec3
	Radius   float64
	Passed   bool
}

type CourseParams struct {
	Start      mgl64.Vec3
	Spacing    float64
	Spread     float64
	RingRadius float64
}

// GenerateCourse lays out count rings marching down -Z from Start, each
// offset sideways and vertically by up to Spread. The same seed always
// yields the same course.
func GenerateCourse(seed uint64, count int, p CourseParams) []RingComponent {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	jitter := func(scale float64) float64 {
		return (rng.Float64()*2 - 1) * scale
	}

	rings := make([]RingComponent, count)
	for i := range rings {
		rings[i] = RingComponent{
			ID:    uuid.NewSHA1(courseNamespace, []byte(fmt.Sprintf("%d:%d", seed, i))).String(),
			Index: i,
			Position: mgl64.Vec3{
				p.Start.X() + jitter(p.Spread),
				p.Start.Y() + jitter(p.Spread/2),
				p.Start.Z() - p.Spacing*float64(i+1),
			},
			Radius: p.RingRadius,
		}
	}
	return rings
}

// CourseState is the run in progress.
type CourseState struct {
	Seed      uint64
	RingCount int
	// Next is the index of the ring that has to be passed next.
	Next     int
	Elapsed  time.Duration
	RunID    string
	Finished bool

	// Camera position at the end of the previous frame.
	lastPos    mgl64.Vec3
	hasLastPos bool
}

func (c *CourseState) Progress() string {
	return fmt.Sprintf("%d/%d", c.Next, c.RingCount)
}

// Player is who the current run is recorded for.
type Player struct {
	Username string
}

type courseSettings struct {
	course     CourseConfig
	start      mgl64.Vec3
	seedSource func() uint64
}

type CourseModule struct {
	Course   CourseConfig
	Start    mgl64.Vec3
	Username string
	// SeedSource picks the seed for a new course. Defaults to a random seed.
	SeedSource func() uint64
}

func (m CourseModule) Install(app *App, cmd *Commands) {
	source := m.SeedSource
	if source == nil {
		source = rand.Uint64
	}
	cmd.AddResources(
		&CourseState{Seed: m.Course.Seed, RingCount: m.Course.RingCount},
		&courseSettings{course: m.Course, start: m.Start, seedSource: source},
		&Player{Username: m.Username},
	)

	app.UseSystem(System(quitSystem).InStage(Update).RunAlways())
	app.UseSystem(System(courseStartSystem).InStage(PreUpdate).InState(OnEnter(StatePlaying)))
	app.UseSystem(System(courseProgressSystem).InStage(PostUpdate).InState(OnExecute(StatePlaying)))
	app.UseSystem(System(courseRestartSystem).InStage(Update).InState(OnExecute(StateFinished)))
}

func quitSystem(input *Input, cmd *Commands) {
	if input.JustPressed[KeyEscape] {
		cmd.ChangeState(StateQuit)
	}
}

// courseStartSystem replaces the rings, puts the camera back at the start
// and resets the clock.
func courseStartSystem(cmd *Commands, course *CourseState, settings *courseSettings) {
	MakeQuery1[RingComponent](cmd).Map(func(eid EntityId, _ *RingComponent) bool {
		cmd.RemoveEntity(eid)
		return true
	})

	params := CourseParams{
		Start:      settings.start,
		Spacing:    settings.course.Spacing,
		Spread:     settings.course.Spread,
		RingRadius: settings.course.RingRadius,
	}
	for _, ring := range GenerateCourse(course.Seed, course.RingCount, params) {
		cmd.AddEntity(ring)
	}

	course.hasLastPos = false
	MakeQuery2[CameraComponent, FlyingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent) bool {
		ResetFlyingCamera(cam, fly)
		course.lastPos, course.hasLastPos = cam.Position, true
		return true
	})

	course.Next = 0
	course.Elapsed = 0
	course.Finished = false
	course.RunID = uuid.NewString()
	cmd.app.Logger().Infof("course %d started with %d rings, run %s", course.Seed, course.RingCount, course.RunID)
}

func courseProgressSystem(cmd *Commands, course *CourseState, settings *courseSettings, t *Time) {
	if course.Finished {
		return
	}
	course.Elapsed += t.Dt

	pos, ok := cameraPosition(cmd)
	if !ok {
		return
	}

	from := pos
	if course.hasLastPos {
		from = course.lastPos
	}
	course.lastPos, course.hasLastPos = pos, true

	// A fast camera may cross several rings in one frame, so every ring the
	// frame's path came close to counts, in order.
	byIndex := make([]*RingComponent, course.RingCount)
	MakeQuery1[RingComponent](cmd).Map(func(eid EntityId, ring *RingComponent) bool {
		if ring.Index >= 0 && ring.Index < len(byIndex) {
			byIndex[ring.Index] = ring
		}
		return true
	})
	for course.Next < len(byIndex) {
		ring := byIndex[course.Next]
		if ring == nil || ring.Passed || segmentDistance(ring.Position, from, pos) > settings.course.PassRadius {
			break
		}
		ring.Passed = true
		course.Next++
		cmd.app.Logger().Debugf("passed ring %s at %v", course.Progress(), course.Elapsed)
	}

	if course.Next >= course.RingCount {
		course.Finished = true
		cmd.app.Logger().Infof("course %d finished in %.3fs", course.Seed, course.Elapsed.Seconds())
		cmd.ChangeState(StateFinished)
	}
}

func courseRestartSystem(input *Input, cmd *Commands, course *CourseState, settings *courseSettings) {
	switch {
	case input.JustPressed[KeyR] || input.JustPressed[KeyEnter]:
		cmd.ChangeState(StatePlaying)
	case input.JustPressed[KeyN]:
		course.Seed = settings.seedSource()
		cmd.ChangeState(StatePlaying)
	}
}

// segmentDistance is the distance from p to the segment [a, b].
func segmentDistance(p, a, b mgl64.Vec3) float64 {
	ab := b.Sub(a)
	lenSq := ab.LenSqr()
	if lenSq == 0 {
		return p.Sub(a).Len()
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return p.Sub(a.Add(ab.Mul(t))).Len()
}

// cameraPosition returns the position of the first camera.
func cameraPosition(cmd *Commands) (mgl64.Vec3, bool) {
	var pos mgl64.Vec3
	found := false
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		pos, found = cam.Position, true
		return false
	})
	return pos, found
}
