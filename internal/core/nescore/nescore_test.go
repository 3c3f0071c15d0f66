package nescore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/nes/nes"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
)

// writeNROM writes a one-bank mapper 0 image whose program is a JMP to
// itself at $8000. flags6 is iNES header byte 6 (0x02 sets battery RAM).
func writeNROM(t *testing.T, name string, flags6 byte) string {
	t.Helper()
	prg := make([]byte, 16*1024)
	copy(prg, []byte{0x4C, 0x00, 0x80}) // JMP $8000
	// NMI, reset and IRQ vectors at $FFFA-$FFFF, mirrored from $BFFA.
	for _, off := range []int{0x3FFA, 0x3FFC, 0x3FFE} {
		prg[off], prg[off+1] = 0x00, 0x80
	}
	header := []byte{'N', 'E', 'S', 0x1A, 1, 0, flags6, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, append(header, prg...), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen_TitleAndBounds(t *testing.T) {
	c, err := Open(writeNROM(t, "Loop Test.nes", 0), 44100, 60)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Title() != "Loop Test" {
		t.Fatalf("Title got %q, want %q", c.Title(), "Loop Test")
	}
	if w, h := c.Bounds(); w != Width || h != Height {
		t.Fatalf("Bounds got %dx%d", w, h)
	}
}

func TestOpen_FractionalFPS(t *testing.T) {
	if _, err := Open(writeNROM(t, "slow.nes", 0), 48000, 0.5); err != nil {
		t.Fatalf("Open at 0.5 fps: %v", err)
	}
}

func TestStepFrame_VideoAndStereoAudio(t *testing.T) {
	c, err := Open(writeNROM(t, "loop.nes", 0), 44100, 60)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var total int
	for i := 0; i < 10; i++ {
		pix, s := c.StepFrame(nil)
		if len(pix) != Width*Height*4 {
			t.Fatalf("framebuffer got %d bytes, want %d", len(pix), Width*Height*4)
		}
		if len(s)%2 != 0 {
			t.Fatalf("frame %d produced %d samples, want an even count", i, len(s))
		}
		for j := 0; j < len(s); j += 2 {
			if s[j] != s[j+1] {
				t.Fatalf("frame %d pair %d got (%v,%v), want mono duplicated", i, j/2, s[j], s[j+1])
			}
		}
		total += len(s) / 2
	}
	// 10 frames at 735 stereo frames each, give or take the APU's timing.
	if total < 7000 || total > 7700 {
		t.Fatalf("10 frames produced %d stereo frames, want about 7350", total)
	}
}

func TestStepFrame_ButtonOrder(t *testing.T) {
	c, err := Open(writeNROM(t, "pad.nes", 0), 44100, 60)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.StepFrame([]input.Event{
		{Button: input.Start, Pressed: true},
		{Button: input.Left, Pressed: true},
		{Button: input.A, Pressed: true},
		{Button: input.A, Pressed: false},
	})
	var want [8]bool
	want[nes.ButtonStart] = true
	want[nes.ButtonLeft] = true
	if c.buttons != want {
		t.Fatalf("controller got %v, want %v", c.buttons, want)
	}
}

func TestSaveRAM_OnlyWithBattery(t *testing.T) {
	plain, err := Open(writeNROM(t, "plain.nes", 0), 44100, 60)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ram := plain.SaveRAM(); ram != nil {
		t.Fatalf("cart without battery returned %d bytes of save RAM", len(ram))
	}

	bat, err := Open(writeNROM(t, "bat.nes", 0x02), 44100, 60)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ram := bat.SaveRAM()
	if len(ram) == 0 {
		t.Fatalf("battery cart returned no save RAM")
	}
	want := bytes.Repeat([]byte{0xA5}, len(ram))
	bat.LoadRAM(want)
	if got := bat.SaveRAM(); !bytes.Equal(got, want) {
		t.Fatalf("SaveRAM after LoadRAM does not round-trip")
	}
	got := bat.SaveRAM()
	got[0] = 0
	if bat.SaveRAM()[0] != 0xA5 {
		t.Fatalf("SaveRAM aliases cartridge memory")
	}
}
