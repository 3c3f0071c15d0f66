//go:build portaudio

package device

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
)

// portAudioDevice renders straight into PortAudio's planar callback buffers.
type portAudioDevice struct {
	opts   Options
	stream *portaudio.Stream
	log    *log.Logger
}

func openPortAudio(r *audio.Renderer, opts Options) (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("device: portaudio init: %w", err)
	}
	cb := func(out [][]float32) {
		r.RenderPlanar(out[0], out[1])
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(opts.SampleRate), opts.bufferFrames(), cb)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("device: portaudio stream: %w", err)
	}
	return &portAudioDevice{opts: opts, stream: stream, log: opts.Logger}, nil
}

func (d *portAudioDevice) Start() error {
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("device: portaudio start: %w", err)
	}
	d.log.Printf("portaudio: %d Hz, %d frames per buffer", d.opts.SampleRate, d.opts.bufferFrames())
	return nil
}

func (d *portAudioDevice) Close() error {
	if d.stream == nil {
		return nil
	}
	err := d.stream.Close()
	d.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
