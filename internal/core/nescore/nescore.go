// Package nescore adapts github.com/fogleman/nes to the core.Core boundary.
package nescore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fogleman/nes/nes"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
)

const (
	Width  = 256
	Height = 240
)

// buttonIndex maps our buttons onto the NES controller's bit order.
var buttonIndex = [8]int{
	input.Up:     nes.ButtonUp,
	input.Down:   nes.ButtonDown,
	input.Left:   nes.ButtonLeft,
	input.Right:  nes.ButtonRight,
	input.A:      nes.ButtonA,
	input.B:      nes.ButtonB,
	input.Start:  nes.ButtonStart,
	input.Select: nes.ButtonSelect,
}

// Core runs one NES console.
type Core struct {
	console *nes.Console
	title   string
	frameS  float64

	buttons [8]bool
	audio   chan float32
	out     []float32
}

// Open loads the iNES file at path. The APU resamples to sampleRate; its
// mono output is duplicated onto both channels.
func Open(path string, sampleRate int, fps float64) (*Core, error) {
	console, err := nes.NewConsole(path)
	if err != nil {
		return nil, fmt.Errorf("nes: load %s: %w", path, err)
	}
	if fps <= 0 {
		fps = 60
	}
	perFrame := int(float64(sampleRate)/fps) + 8
	c := &Core{
		console: console,
		title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		frameS:  1 / fps,
		// the APU drops samples when this is full; it is drained every frame
		audio: make(chan float32, max(sampleRate, 2*perFrame)),
		out:   make([]float32, 0, 2*perFrame),
	}
	console.SetAudioSampleRate(float64(sampleRate))
	console.SetAudioChannel(c.audio)
	return c, nil
}

func (c *Core) Bounds() (int, int) { return Width, Height }
func (c *Core) Title() string      { return c.title }

func (c *Core) StepFrame(events []input.Event) ([]byte, []float32) {
	for _, e := range events {
		if int(e.Button) < len(buttonIndex) {
			c.buttons[buttonIndex[e.Button]] = e.Pressed
		}
	}
	c.console.SetButtons1(c.buttons)
	c.console.StepSeconds(c.frameS)

	c.out = c.out[:0]
	for {
		select {
		case s := <-c.audio:
			c.out = append(c.out, s, s)
			continue
		default:
		}
		break
	}
	return c.console.Buffer().Pix, c.out
}

// SaveRAM returns cartridge SRAM for battery-backed carts.
func (c *Core) SaveRAM() []byte {
	cart := c.console.Cartridge
	if cart == nil || cart.Battery == 0 || len(cart.SRAM) == 0 {
		return nil
	}
	return append([]byte(nil), cart.SRAM...)
}

// LoadRAM restores SRAM written by SaveRAM.
func (c *Core) LoadRAM(data []byte) {
	cart := c.console.Cartridge
	if cart == nil || cart.Battery == 0 {
		return
	}
	copy(cart.SRAM, data)
}
