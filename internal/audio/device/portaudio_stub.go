//go:build !portaudio

package device

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
)

func openPortAudio(*audio.Renderer, Options) (Device, error) {
	return nil, fmt.Errorf("%w: portaudio support needs -tags portaudio", ErrUnknownBackend)
}
