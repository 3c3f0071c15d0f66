package input

// Standard gamepad layout indices (W3C "standard" mapping, which ebiten's
// StandardGamepadButton values follow).
const (
	PadA         = 0
	PadB         = 1
	PadSelect    = 8
	PadStart     = 9
	PadDpadUp    = 12
	PadDpadDown  = 13
	PadDpadLeft  = 14
	PadDpadRight = 15

	AxisLeftX = 0
	AxisLeftY = 1
)

// DeadZone is the stick deflection needed to count as a d-pad press.
const DeadZone = 0.5

// GamepadState is one poll of the first connected gamepad.
type GamepadState struct {
	Connected bool
	Buttons   [16]bool
	Axes      [4]float64
}

// GamepadEvents appends the current state of all eight buttons to dst. A
// disconnected pad contributes nothing.
func GamepadEvents(s GamepadState, dst []Event) []Event {
	if !s.Connected {
		return dst
	}
	x, y := s.Axes[AxisLeftX], s.Axes[AxisLeftY]
	return append(dst,
		Event{Start, s.Buttons[PadStart]},
		Event{Select, s.Buttons[PadSelect]},
		Event{A, s.Buttons[PadA]},
		Event{B, s.Buttons[PadB]},
		Event{Up, s.Buttons[PadDpadUp] || y < -DeadZone},
		Event{Down, s.Buttons[PadDpadDown] || y > DeadZone},
		Event{Left, s.Buttons[PadDpadLeft] || x < -DeadZone},
		Event{Right, s.Buttons[PadDpadRight] || x > DeadZone},
	)
}

// PadTracker turns successive polls into transitions so a pad at rest does
// not release buttons held on the keyboard.
type PadTracker struct {
	held State
	poll []Event
}

// Events appends the buttons whose state changed since the last poll. A pad
// that disconnects releases whatever it was holding.
func (t *PadTracker) Events(s GamepadState, dst []Event) []Event {
	if !s.Connected {
		for b, on := range t.held {
			if on {
				dst = append(dst, Event{Button(b), false})
				t.held[b] = false
			}
		}
		return dst
	}
	t.poll = GamepadEvents(s, t.poll[:0])
	for _, e := range t.poll {
		if t.held[e.Button] != e.Pressed {
			t.held[e.Button] = e.Pressed
			dst = append(dst, e)
		}
	}
	return dst
}
