// Package tone is a small built-in core: every button drives a square-wave
// voice and lights a tile on a scrolling test pattern. It exercises the
// bridge without a ROM.
package tone

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"math"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
)

const (
	Width  = 160
	Height = 144
)

// Title keys the tone core's save data.
const Title = "TONE"

var dutyTable = [4][8]byte{
	// 12.5%, 25%, 50%, 75%
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

// C major scale from C4, one note per button in input.Buttons order.
var noteHz = [8]float64{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88, 523.25}

type voice struct {
	duty   byte
	freq   float64
	phase  float64 // 0..1 within one duty period
	curVol byte    // 0..15
	held   bool
	pan    float64 // 0 = left, 1 = right
}

// Core is the tone generator.
type Core struct {
	sampleRate      int
	samplesPerFrame float64
	accum           float64
	mixGain         float64

	voices [8]voice
	state  input.State
	counts [8]uint32 // presses per button, battery backed
	frame  uint64

	fb  []byte
	out []float32
}

// New returns a tone core producing fps frames per second of audio at
// sampleRate.
func New(sampleRate int, fps float64) *Core {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if fps <= 0 {
		fps = 60
	}
	c := &Core{
		sampleRate:      sampleRate,
		samplesPerFrame: float64(sampleRate) / fps,
		mixGain:         0.20,
		fb:              make([]byte, Width*Height*4),
	}
	c.out = make([]float32, 0, 2*(int(c.samplesPerFrame)+2))
	for i := range c.voices {
		c.voices[i].freq = noteHz[i]
		c.voices[i].duty = byte(i % 4)
		if i < 4 {
			c.voices[i].pan = 0.25 // d-pad leans left
		} else {
			c.voices[i].pan = 0.75
		}
	}
	return c
}

func (c *Core) Bounds() (int, int) { return Width, Height }
func (c *Core) Title() string      { return Title }

// StepFrame applies events, renders the pattern and synthesizes one frame's
// worth of samples.
func (c *Core) StepFrame(events []input.Event) ([]byte, []float32) {
	for _, e := range events {
		if int(e.Button) >= len(c.voices) {
			continue
		}
		v := &c.voices[e.Button]
		if e.Pressed && !v.held {
			c.counts[e.Button]++
			v.curVol = 15
			v.phase = 0
		}
		v.held = e.Pressed
	}
	c.state.Apply(events)

	c.clockEnvelope()
	c.render()

	c.accum += c.samplesPerFrame
	n := int(c.accum)
	c.accum -= float64(n)
	c.out = c.out[:0]
	for i := 0; i < n; i++ {
		l, r := c.mixSampleStereo()
		c.out = append(c.out, l, r)
	}
	c.frame++
	return c.fb, c.out
}

// clockEnvelope decays released voices once per frame.
func (c *Core) clockEnvelope() {
	for i := range c.voices {
		v := &c.voices[i]
		if !v.held && v.curVol > 0 && c.frame%2 == 0 {
			v.curVol--
		}
	}
}

func (c *Core) mixSampleStereo() (float32, float32) {
	var l, r float64
	step := 1 / float64(c.sampleRate)
	for i := range c.voices {
		v := &c.voices[i]
		if v.curVol == 0 {
			continue
		}
		pat := dutyTable[v.duty]
		idx := int(v.phase*8) & 7
		amp := float64(v.curVol) / 15.0
		s := -amp
		if pat[idx] != 0 {
			s = amp
		}
		l += s * (1 - v.pan)
		r += s * v.pan
		v.phase += v.freq * step
		v.phase -= math.Floor(v.phase)
	}
	return clamp(l * c.mixGain), clamp(r * c.mixGain)
}

func clamp(v float64) float32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return float32(v)
}

var tileColors = [8][3]byte{
	{0xe0, 0x40, 0x40}, {0xe0, 0x90, 0x30}, {0xd0, 0xd0, 0x30}, {0x40, 0xc0, 0x40},
	{0x30, 0xa0, 0xe0}, {0x50, 0x50, 0xe0}, {0xa0, 0x40, 0xd0}, {0xe0, 0x60, 0xa0},
}

// render draws a diagonal scroll with a 4x2 grid of button tiles.
func (c *Core) render() {
	const tileW, tileH = Width / 4, Height / 4
	shift := int(c.frame)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			i := (y*Width + x) * 4
			g := byte(((x + y + shift) >> 3) & 1 * 0x18)
			cr, cg, cb := 0x20+g, 0x28+g, 0x20+g
			if y >= tileH && y < 3*tileH {
				b := x/tileW + 4*((y-tileH)/tileH)
				inset := x%tileW > 3 && x%tileW < tileW-4 && (y-tileH)%tileH > 3 && (y-tileH)%tileH < tileH-4
				if inset {
					col := tileColors[b]
					if c.state[b] {
						cr, cg, cb = col[0], col[1], col[2]
					} else {
						cr, cg, cb = col[0]/4, col[1]/4, col[2]/4
					}
				}
			}
			c.fb[i+0] = cr
			c.fb[i+1] = cg
			c.fb[i+2] = cb
			c.fb[i+3] = 0xFF
		}
	}
}

// Presses returns how many times b has been pressed, including counts loaded
// from save RAM.
func (c *Core) Presses(b input.Button) uint32 {
	if int(b) >= len(c.counts) {
		return 0
	}
	return c.counts[b]
}

// SaveRAM returns the press counters as little-endian uint32s.
func (c *Core) SaveRAM() []byte {
	out := make([]byte, 4*len(c.counts))
	for i, n := range c.counts {
		binary.LittleEndian.PutUint32(out[4*i:], n)
	}
	return out
}

// LoadRAM restores counters written by SaveRAM. Short input loads what it
// covers.
func (c *Core) LoadRAM(data []byte) {
	for i := range c.counts {
		if 4*i+4 > len(data) {
			return
		}
		c.counts[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
}

// --- Save/Load state ---
type voiceState struct {
	Phase  float64
	CurVol byte
	Held   bool
}

type toneState struct {
	Frame  uint64
	Accum  float64
	Counts [8]uint32
	Keys   [8]bool
	Voices [8]voiceState
}

func (c *Core) SaveState() []byte {
	s := toneState{Frame: c.frame, Accum: c.accum, Counts: c.counts, Keys: c.state}
	for i, v := range c.voices {
		s.Voices[i] = voiceState{Phase: v.phase, CurVol: v.curVol, Held: v.held}
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (c *Core) LoadState(data []byte) error {
	var s toneState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	c.frame, c.accum, c.counts = s.Frame, s.Accum, s.Counts
	c.state = input.State(s.Keys)
	for i, v := range s.Voices {
		c.voices[i].phase = v.Phase
		c.voices[i].curVol = v.CurVol
		c.voices[i].held = v.Held
	}
	return nil
}
