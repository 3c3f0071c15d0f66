// Package audio moves synthesized samples from the emulation loop to the
// audio device callback without locks.
package audio

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// NoData is returned for both channels by Channel.Read when nothing is
// buffered. Consumers must treat it as silence.
const NoData float32 = -1

// ErrCapacity reports a channel capacity that is not a positive even number.
var ErrCapacity = errors.New("audio: capacity must be a positive even number of samples")

// OverrunPolicy decides what happens when the writer gets a full buffer ahead
// of the reader.
type OverrunPolicy int

const (
	// Overwrite never refuses a write. Unread samples are overwritten and the
	// reader resumes at the oldest sample still present.
	Overwrite OverrunPolicy = iota
	// DropNewest refuses writes that do not fit and counts them.
	DropNewest
)

func (p OverrunPolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case DropNewest:
		return "drop"
	default:
		return fmt.Sprintf("OverrunPolicy(%d)", int(p))
	}
}

// ParsePolicy maps a flag value to an OverrunPolicy.
func ParsePolicy(s string) (OverrunPolicy, error) {
	switch s {
	case "", "overwrite":
		return Overwrite, nil
	case "drop", "dropnewest":
		return DropNewest, nil
	}
	return Overwrite, fmt.Errorf("audio: unknown overrun policy %q", s)
}

// Channel is a single-producer, single-consumer ring of interleaved stereo
// float32 samples (L0, R0, L1, R1, ...).
//
// The write and read positions are monotonically increasing counters; the
// cursor into the buffer is the counter modulo the capacity. Only the
// producer stores the write counter and only the consumer stores the read
// counter. The atomic store of the write counter publishes the sample slots
// written before it.
//
// Thread assignment:
//   - Write, WriteFrame, WriteSamples, Reset: producer only
//   - Read: consumer only
//   - everything else: either side
type Channel struct {
	// Separate cache lines for the two counters.
	w    atomic.Uint64
	_    [56]byte
	r    atomic.Uint64
	_    [56]byte
	laps atomic.Uint64 // bumped by the reader
	drop atomic.Uint64 // bumped by the writer

	buf    []float32
	size   uint64
	policy OverrunPolicy
}

// NewChannel allocates a channel holding capacity samples.
func NewChannel(capacity int, policy OverrunPolicy) (*Channel, error) {
	if capacity <= 0 || capacity%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	return &Channel{
		buf:    make([]float32, capacity),
		size:   uint64(capacity),
		policy: policy,
	}, nil
}

// ForSampleRate allocates one second of stereo audio at the given rate.
func ForSampleRate(rate int, policy OverrunPolicy) (*Channel, error) {
	return NewChannel(rate*2, policy)
}

// Write stores one sample at the write cursor and advances it. It never
// blocks. Under Overwrite it always succeeds; under DropNewest it returns
// false when the ring is full.
//
// Samples must be supplied in left/right pairs. The channel does not check
// alignment: an odd number of writes swaps the channels for good.
func (c *Channel) Write(s float32) bool {
	w := c.w.Load()
	if c.policy == DropNewest && w-c.r.Load() >= c.size {
		c.drop.Add(1)
		return false
	}
	c.buf[w%c.size] = s
	c.w.Store(w + 1)
	return true
}

// WriteFrame stores one stereo pair. Under DropNewest the pair is stored
// whole or not at all.
func (c *Channel) WriteFrame(l, r float32) bool {
	w := c.w.Load()
	if c.policy == DropNewest && w-c.r.Load()+2 > c.size {
		c.drop.Add(2)
		return false
	}
	c.buf[w%c.size] = l
	c.buf[(w+1)%c.size] = r
	c.w.Store(w + 2)
	return true
}

// WriteSamples writes interleaved samples and returns how many were stored.
func (c *Channel) WriteSamples(samples []float32) int {
	n := 0
	i := 0
	for ; i+1 < len(samples); i += 2 {
		if c.WriteFrame(samples[i], samples[i+1]) {
			n += 2
		}
	}
	if i < len(samples) && c.Write(samples[i]) {
		n++
	}
	return n
}

// Read returns the next stereo pair. When fewer than two samples are
// buffered it returns (NoData, NoData, false) and leaves the read cursor
// where it is.
func (c *Channel) Read() (l, r float32, ok bool) {
	rd := c.r.Load()
	w := c.w.Load()
	avail := w - rd
	if avail < 2 {
		return NoData, NoData, false
	}
	if avail > c.size {
		// The writer lapped us; skip to the oldest sample still in the ring.
		rd = w - c.size
		c.laps.Add(1)
	}
	l = c.buf[rd%c.size]
	r = c.buf[(rd+1)%c.size]
	c.r.Store(rd + 2)
	return l, r, true
}

// Cap returns the capacity in samples.
func (c *Channel) Cap() int { return int(c.size) }

// Buffered returns the number of unread samples, capped at the capacity.
func (c *Channel) Buffered() int {
	n := c.w.Load() - c.r.Load()
	if n > c.size {
		n = c.size
	}
	return int(n)
}

// BufferedFrames returns the number of unread stereo frames.
func (c *Channel) BufferedFrames() int { return c.Buffered() / 2 }

// WriteCursor returns the slot the next write goes to, in [0, Cap).
func (c *Channel) WriteCursor() int { return int(c.w.Load() % c.size) }

// ReadCursor returns the slot the next read comes from, in [0, Cap).
func (c *Channel) ReadCursor() int { return int(c.r.Load() % c.size) }

// Policy returns the overrun policy the channel was built with.
func (c *Channel) Policy() OverrunPolicy { return c.policy }

// Overruns counts the times the reader found itself lapped by the writer.
func (c *Channel) Overruns() uint64 { return c.laps.Load() }

// Dropped counts samples refused under DropNewest.
func (c *Channel) Dropped() uint64 { return c.drop.Load() }

// Reset empties the channel. It must not race with Read; call it only while
// the consumer is stopped.
func (c *Channel) Reset() {
	c.r.Store(0)
	c.w.Store(0)
	c.laps.Store(0)
	c.drop.Store(0)
	clear(c.buf)
}
