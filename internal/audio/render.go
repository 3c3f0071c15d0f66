package audio

import "sync/atomic"

// Renderer is the consumer side of a Channel. The audio device calls it from
// its own goroutine whenever it needs more frames. It never blocks and never
// allocates; missing data becomes silence.
type Renderer struct {
	ch *Channel

	muted atomic.Bool
	mono  atomic.Bool

	// stats
	underruns atomic.Uint64
	rendered  atomic.Uint64
}

// NewRenderer returns a Renderer pulling from ch.
func NewRenderer(ch *Channel) *Renderer {
	return &Renderer{ch: ch}
}

// Channel returns the channel the renderer pulls from.
func (r *Renderer) Channel() *Channel { return r.ch }

// SetMuted keeps draining the channel but outputs silence.
func (r *Renderer) SetMuted(on bool) { r.muted.Store(on) }

// Muted reports whether output is muted.
func (r *Renderer) Muted() bool { return r.muted.Load() }

// SetMono folds both channels to their average.
func (r *Renderer) SetMono(on bool) { r.mono.Store(on) }

// Underruns counts frames that were rendered as silence because the channel
// was empty.
func (r *Renderer) Underruns() uint64 { return r.underruns.Load() }

// Rendered counts frames taken from the channel.
func (r *Renderer) Rendered() uint64 { return r.rendered.Load() }

// Render fills out with interleaved stereo frames. A trailing odd slot is
// zeroed.
func (r *Renderer) Render(out []float32) {
	frames := len(out) / 2
	muted, mono := r.muted.Load(), r.mono.Load()
	var got, missed uint64
	for i := 0; i < frames; i++ {
		l, rt, ok := r.ch.Read()
		if !ok {
			l, rt = 0, 0
			missed++
		} else {
			got++
		}
		if muted {
			l, rt = 0, 0
		} else if mono {
			m := (l + rt) / 2
			l, rt = m, m
		}
		out[2*i] = l
		out[2*i+1] = rt
	}
	if len(out)%2 != 0 {
		out[len(out)-1] = 0
	}
	r.account(got, missed)
}

// RenderPlanar fills separate left and right buffers, as split-channel
// device callbacks expect. Only min(len(left), len(right)) frames are
// rendered.
func (r *Renderer) RenderPlanar(left, right []float32) {
	frames := min(len(left), len(right))
	muted, mono := r.muted.Load(), r.mono.Load()
	var got, missed uint64
	for i := 0; i < frames; i++ {
		l, rt, ok := r.ch.Read()
		if !ok {
			l, rt = 0, 0
			missed++
		} else {
			got++
		}
		if muted {
			l, rt = 0, 0
		} else if mono {
			m := (l + rt) / 2
			l, rt = m, m
		}
		left[i] = l
		right[i] = rt
	}
	r.account(got, missed)
}

func (r *Renderer) account(got, missed uint64) {
	if got > 0 {
		r.rendered.Add(got)
	}
	if missed > 0 {
		r.underruns.Add(missed)
	}
}
