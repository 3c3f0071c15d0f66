package device

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
)

// NullDevice consumes audio in real time without a sound card. Each tick it
// pulls as many frames as wall time says a device would have played. Used by
// the headless runner and tests.
type NullDevice struct {
	opts   Options
	r      *audio.Renderer
	stream *audio.Stream
	raw    io.Writer
	log    *log.Logger

	buf    []byte
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func NewNull(r *audio.Renderer, opts Options) *NullDevice {
	opts.defaults()
	period := opts.bufferDuration() / 4
	if period < time.Millisecond {
		period = time.Millisecond
	}
	return &NullDevice{
		opts:   opts,
		r:      r,
		stream: audio.NewStream(r, opts.bufferFrames()),
		raw:    opts.Raw,
		log:    opts.Logger,
		period: period,
	}
}

// Pull renders frames stereo frames as one device callback would.
func (d *NullDevice) Pull(frames int) error {
	need := frames * audio.BytesPerFrame
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	p := d.buf[:need]
	if _, err := d.stream.Read(p); err != nil {
		return err
	}
	if d.raw != nil {
		if _, err := d.raw.Write(p); err != nil {
			return fmt.Errorf("device: raw audio: %w", err)
		}
	}
	return nil
}

// Run pulls at the configured sample rate until ctx is done.
func (d *NullDevice) Run(ctx context.Context) error {
	t := time.NewTicker(d.period)
	defer t.Stop()
	last := time.Now()
	var carry float64
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			carry += now.Sub(last).Seconds() * float64(d.opts.SampleRate)
			last = now
			n := int(carry)
			carry -= float64(n)
			if n == 0 {
				continue
			}
			if err := d.Pull(n); err != nil {
				return err
			}
		}
	}
}

// Start runs Run on its own goroutine until Close.
func (d *NullDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan error, 1)
	go func() { d.done <- d.Run(ctx) }()
	d.log.Printf("null audio: %d Hz, tick %s", d.opts.SampleRate, d.period)
	return nil
}

func (d *NullDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	d.cancel = nil
	return <-d.done
}
