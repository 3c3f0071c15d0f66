package tone

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
)

func TestTone_SamplesPerFrameAverage(t *testing.T) {
	c := New(44100, 60) // 735 frames per video frame
	total := 0
	for i := 0; i < 60; i++ {
		_, s := c.StepFrame(nil)
		if len(s)%2 != 0 {
			t.Fatalf("frame %d produced %d samples, want an even count", i, len(s))
		}
		total += len(s) / 2
	}
	if total != 44100 {
		t.Fatalf("one second produced %d stereo frames, want 44100", total)
	}
}

func TestTone_FractionalRateAccumulates(t *testing.T) {
	c := New(48000, 59.7275)
	total := 0
	for i := 0; i < 1000; i++ {
		_, s := c.StepFrame(nil)
		total += len(s) / 2
	}
	want := 48000 / 59.7275 * 1000
	if d := float64(total) - want; d > 1 || d < -1 {
		t.Fatalf("1000 frames produced %d stereo frames, want about %.1f", total, want)
	}
}

func TestTone_SilentUntilPressed(t *testing.T) {
	c := New(48000, 60)
	_, s := c.StepFrame(nil)
	for i, v := range s {
		if v != 0 {
			t.Fatalf("sample %d got %v with no buttons held", i, v)
		}
	}

	_, s = c.StepFrame([]input.Event{{Button: input.A, Pressed: true}})
	loud := false
	for _, v := range s {
		if v > 1 || v < -1 {
			t.Fatalf("sample %v outside [-1,1]", v)
		}
		if v != 0 {
			loud = true
		}
	}
	if !loud {
		t.Fatalf("holding A produced silence")
	}
}

func TestTone_FramebufferSizeAndTiles(t *testing.T) {
	c := New(48000, 60)
	w, h := c.Bounds()
	fb, _ := c.StepFrame(nil)
	if len(fb) != w*h*4 {
		t.Fatalf("framebuffer got %d bytes, want %d", len(fb), w*h*4)
	}
	// Centre of the A tile (index 4: first column, second row).
	px := func(fb []byte) byte {
		x, y := Width/8, Height/4+Height/4+Height/8
		return fb[(y*Width+x)*4]
	}
	dim := px(fb)
	fb, _ = c.StepFrame([]input.Event{{Button: input.A, Pressed: true}})
	if lit := px(fb); lit <= dim {
		t.Fatalf("A tile red channel got %d when held, want brighter than %d", lit, dim)
	}
}

func TestTone_SaveRAMRoundTrip(t *testing.T) {
	c := New(48000, 60)
	c.StepFrame([]input.Event{
		{Button: input.B, Pressed: true},
		{Button: input.B, Pressed: false},
		{Button: input.B, Pressed: true},
		{Button: input.Start, Pressed: true},
	})
	ram := c.SaveRAM()

	d := New(48000, 60)
	d.LoadRAM(ram)
	if d.Presses(input.B) != 2 || d.Presses(input.Start) != 1 {
		t.Fatalf("loaded counts B=%d Start=%d, want 2/1", d.Presses(input.B), d.Presses(input.Start))
	}
	d.LoadRAM(ram[:3]) // too short to cover anything
	if d.Presses(input.B) != 2 {
		t.Fatalf("short LoadRAM clobbered counts")
	}
}

func TestTone_StateRoundTrip(t *testing.T) {
	c := New(48000, 60)
	c.StepFrame([]input.Event{{Button: input.Up, Pressed: true}})
	snap := c.SaveState()
	_, want := c.StepFrame(nil)
	want = append([]float32(nil), want...)

	d := New(48000, 60)
	if err := d.LoadState(snap); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	_, got := d.StepFrame(nil)
	if len(got) != len(want) {
		t.Fatalf("restored core produced %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d got %v, want %v", i, got[i], want[i])
		}
	}
	if err := d.LoadState([]byte("junk")); err == nil {
		t.Fatalf("LoadState accepted junk")
	}
}
