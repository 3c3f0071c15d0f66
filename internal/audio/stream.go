package audio

import (
	"encoding/binary"
	"math"
)

// BytesPerFrame is the size of one stereo float32 frame on the wire.
const BytesPerFrame = 8

// Stream implements io.Reader by pulling frames through a Renderer and
// encoding them as 32-bit float little-endian stereo, the layout ebiten's
// float32 player and oto's FormatFloat32LE expect.
type Stream struct {
	r       *Renderer
	scratch []float32
}

// NewStream wraps r. chunkFrames sizes the scratch buffer; larger reads are
// served in several passes so Read never allocates.
func NewStream(r *Renderer, chunkFrames int) *Stream {
	if chunkFrames <= 0 {
		chunkFrames = 1024
	}
	return &Stream{r: r, scratch: make([]float32, chunkFrames*2)}
}

func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// Shorter than a full frame: return silence rather than 0 bytes.
	if len(p) < BytesPerFrame {
		clear(p)
		return len(p), nil
	}
	frames := len(p) / BytesPerFrame
	off := 0
	for frames > 0 {
		n := min(frames, len(s.scratch)/2)
		buf := s.scratch[:n*2]
		s.r.Render(buf)
		for _, v := range buf {
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(v))
			off += 4
		}
		frames -= n
	}
	return off, nil
}
