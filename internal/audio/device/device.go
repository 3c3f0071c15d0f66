// Package device opens an audio output and drives an audio.Renderer from its
// callback. Every backend pulls; none of them push.
package device

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
)

var ErrUnknownBackend = errors.New("device: unknown backend")

// Device is a started-on-demand audio output.
type Device interface {
	Start() error
	Close() error
}

type Kind string

const (
	Ebiten    Kind = "ebiten"
	Oto       Kind = "oto"
	PortAudio Kind = "portaudio"
	Null      Kind = "null"
)

// Kinds lists the backends Open understands, in preference order.
func Kinds() []Kind { return []Kind{Ebiten, Oto, PortAudio, Null} }

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return Ebiten, nil
	}
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

type Options struct {
	SampleRate int
	BufferMs   int       // device-side buffering; 0 picks a low-latency default
	Raw        io.Writer // null backend: receives rendered float32 LE frames
	Logger     *log.Logger
}

func (o *Options) defaults() {
	if o.SampleRate <= 0 {
		o.SampleRate = 48000
	}
	if o.BufferMs <= 0 {
		o.BufferMs = 40
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

func (o Options) bufferDuration() time.Duration { return time.Duration(o.BufferMs) * time.Millisecond }

// bufferFrames is BufferMs expressed in stereo frames.
func (o Options) bufferFrames() int {
	n := o.SampleRate * o.BufferMs / 1000
	if n < 64 {
		n = 64
	}
	return n
}

// Open constructs the named backend. The device is silent until Start.
func Open(kind Kind, r *audio.Renderer, opts Options) (Device, error) {
	if r == nil {
		return nil, errors.New("device: nil renderer")
	}
	opts.defaults()
	switch kind {
	case Ebiten, "":
		return openEbiten(r, opts)
	case Oto:
		return openOto(r, opts)
	case PortAudio:
		return openPortAudio(r, opts)
	case Null:
		return NewNull(r, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}
