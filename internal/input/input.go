// Package input turns keyboard and gamepad activity into an ordered stream of
// button transitions that the frame loop drains once per frame.
package input

import "sync"

// Button is one of the eight logical joypad buttons.
type Button uint8

const (
	Up Button = iota
	Down
	Left
	Right
	A
	B
	Start
	Select
)

// Buttons lists every Button in declaration order.
var Buttons = [...]Button{Up, Down, Left, Right, A, B, Start, Select}

var buttonNames = [...]string{"Up", "Down", "Left", "Right", "A", "B", "Start", "Select"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "Button(?)"
}

// ParseButton is the inverse of Button.String.
func ParseButton(s string) (Button, bool) {
	for i, n := range buttonNames {
		if n == s {
			return Button(i), true
		}
	}
	return 0, false
}

// Event is a single press or release.
type Event struct {
	Button  Button
	Pressed bool
}

// State folds events into a pressed/released snapshot.
type State [len(buttonNames)]bool

// Apply updates the snapshot with events in order.
func (s *State) Apply(events []Event) {
	for _, e := range events {
		if int(e.Button) < len(s) {
			s[e.Button] = e.Pressed
		}
	}
}

// Queue collects events from any number of sources and hands them to a
// single drainer. Drain swaps the backing slices so steady-state operation
// does not allocate.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0, 32)}
}

// Push appends one event.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// PushAll appends events in order.
func (q *Queue) PushAll(events []Event) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

// Drain removes every queued event and returns them in append order,
// reusing dst's storage. The queue keeps dst's old array for the next round,
// so callers must not hold on to a previously returned slice across two
// drains.
func (q *Queue) Drain(dst []Event) []Event {
	q.mu.Lock()
	out := q.events
	q.events = dst[:0]
	q.mu.Unlock()
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
