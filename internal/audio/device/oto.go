package device

import (
	"fmt"
	"log"

	"github.com/ebitengine/oto/v3"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
)

type otoDevice struct {
	opts   Options
	ctx    *oto.Context
	player *oto.Player
	stream *audio.Stream
	log    *log.Logger
}

func openOto(r *audio.Renderer, opts Options) (Device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   opts.bufferDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("device: oto context: %w", err)
	}
	<-ready
	return &otoDevice{
		opts:   opts,
		ctx:    ctx,
		stream: audio.NewStream(r, opts.bufferFrames()),
		log:    opts.Logger,
	}, nil
}

func (d *otoDevice) Start() error {
	if d.player != nil {
		return nil
	}
	d.player = d.ctx.NewPlayer(d.stream)
	d.player.Play()
	d.log.Printf("oto audio: %d Hz, buffer %dms", d.opts.SampleRate, d.opts.BufferMs)
	return nil
}

func (d *otoDevice) Close() error {
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}
