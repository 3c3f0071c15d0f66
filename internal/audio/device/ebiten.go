package device

import (
	"fmt"
	"log"

	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
)

// ebitenDevice plays through ebiten's audio context. Only one context may
// exist per process, so an existing one is reused when its rate matches.
type ebitenDevice struct {
	opts   Options
	ctx    *ebaudio.Context
	player *ebaudio.Player
	stream *audio.Stream
	log    *log.Logger
}

func openEbiten(r *audio.Renderer, opts Options) (Device, error) {
	ctx := ebaudio.CurrentContext()
	if ctx == nil {
		ctx = ebaudio.NewContext(opts.SampleRate)
	} else if ctx.SampleRate() != opts.SampleRate {
		return nil, fmt.Errorf("device: ebiten context already running at %d Hz", ctx.SampleRate())
	}
	return &ebitenDevice{
		opts:   opts,
		ctx:    ctx,
		stream: audio.NewStream(r, opts.bufferFrames()),
		log:    opts.Logger,
	}, nil
}

func (d *ebitenDevice) Start() error {
	if d.player != nil {
		return nil
	}
	p, err := d.ctx.NewPlayerF32(d.stream)
	if err != nil {
		return fmt.Errorf("device: ebiten player: %w", err)
	}
	p.SetBufferSize(d.opts.bufferDuration())
	p.Play()
	d.player = p
	d.log.Printf("ebiten audio: %d Hz, buffer %dms", d.opts.SampleRate, d.opts.BufferMs)
	return nil
}

func (d *ebitenDevice) Close() error {
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}
