// Package core defines the boundary between the bridge and an emulation
// step. Cores own their output buffers.
package core

import "github.com/FabianRolfMatthiasNoll/gbstream/internal/input"

// Core advances emulation one video frame at a time.
type Core interface {
	// StepFrame applies events in order, runs one frame and returns the RGBA
	// framebuffer and the interleaved stereo samples produced during it.
	// Both slices are valid until the next call.
	StepFrame(events []input.Event) (video []byte, samples []float32)
	// Bounds returns the framebuffer size in pixels.
	Bounds() (w, h int)
	// Title names the loaded program; it keys persisted save data.
	Title() string
}

// BatteryBacked is implemented by cores with save RAM worth persisting.
// SaveRAM returns a copy; an empty result means nothing to save.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// Snapshotter is implemented by cores that can serialize their full state.
type Snapshotter interface {
	SaveState() []byte
	LoadState(data []byte) error
}
