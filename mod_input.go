package ringrun

import (
	"sync"
)

const (
	KeyA int = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyDelete
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyShift
	KeyControl
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	keyCount
)

type InputEventKind int

const (
	EventKeyDown InputEventKind = iota
	EventKeyUp
	// EventKeyTap presses a key and releases it TapHold frames later unless
	// another tap arrives first. Terminals only report presses.
	EventKeyTap
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventChar
	EventResize
)

type InputEvent struct {
	Kind InputEventKind
	Key  int
	// Pointer position in pixels for mouse events.
	X, Y float64
	Rune rune
	// Window size in pixels for EventResize.
	Width, Height int
}

// InputQueue collects events from front-end goroutines until the next frame
// drains them.
type InputQueue struct {
	mu     sync.Mutex
	events []InputEvent
}

func (q *InputQueue) Push(events ...InputEvent) {
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

func (q *InputQueue) drain() []InputEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool
	// Taps counts this frame's taps per key. Every tap is also a JustPressed,
	// even while the key is still held from an earlier one.
	Taps [keyCount]int

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	// HasPointer is false until the first mouse event arrives.
	HasPointer bool

	WindowWidth, WindowHeight int
	CharBuffer                []rune

	tapHold   int
	tapFrames [keyCount]int
}

func (input *Input) press(key int) {
	if !input.Pressed[key] {
		input.JustPressed[key] = true
	}
	input.Pressed[key] = true
}

func (input *Input) release(key int) {
	if input.Pressed[key] {
		input.JustReleased[key] = true
	}
	input.Pressed[key] = false
	input.tapFrames[key] = 0
}

// InputModule installs the Input and InputQueue resources.
type InputModule struct {
	// TapHold is how many frames a tapped key stays pressed. Defaults to 8.
	TapHold int
	// Initial window size in pixels, until the front end reports a resize.
	Width, Height int
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	hold := mod.TapHold
	if hold <= 0 {
		hold = 8
	}
	cmd.AddResources(
		&Input{tapHold: hold, WindowWidth: mod.Width, WindowHeight: mod.Height},
		&InputQueue{},
	)
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func inputSystem(queue *InputQueue, input *Input) {
	input.CharBuffer = input.CharBuffer[:0]
	input.MouseDeltaX, input.MouseDeltaY = 0, 0
	input.JustPressed = [keyCount]bool{}
	input.JustReleased = [keyCount]bool{}
	input.Taps = [keyCount]int{}

	for key := range input.tapFrames {
		if input.tapFrames[key] == 0 {
			continue
		}
		input.tapFrames[key]--
		if input.tapFrames[key] == 0 {
			input.release(key)
		}
	}

	for _, ev := range queue.drain() {
		switch ev.Kind {
		case EventKeyDown, EventMouseDown:
			if validKey(ev.Key) {
				input.press(ev.Key)
			}
		case EventKeyUp, EventMouseUp:
			if validKey(ev.Key) {
				input.release(ev.Key)
			}
		case EventKeyTap:
			if validKey(ev.Key) {
				input.press(ev.Key)
				input.JustPressed[ev.Key] = true
				input.Taps[ev.Key]++
				input.tapFrames[ev.Key] = input.tapHold
			}
		case EventChar:
			input.CharBuffer = append(input.CharBuffer, ev.Rune)
		case EventResize:
			input.WindowWidth, input.WindowHeight = ev.Width, ev.Height
		}

		if ev.Kind == EventMouseMove || ev.Kind == EventMouseDown || ev.Kind == EventMouseUp {
			if input.HasPointer {
				input.MouseDeltaX += ev.X - input.MouseX
				input.MouseDeltaY += ev.Y - input.MouseY
			}
			input.MouseX, input.MouseY = ev.X, ev.Y
			input.HasPointer = true
		}
	}
}

func validKey(key int) bool {
	return key >= 0 && key < int(keyCount)
}
