package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/pacing"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/save"
)

func headlessFlags(dir string) CLIFlags {
	return CLIFlags{
		Rate:     48000,
		BufferMs: 20,
		FPS:      60,
		Frames:   30,
		PNGOut:   filepath.Join(dir, "last.png"),
		RawAudio: filepath.Join(dir, "out.f32"),
	}
}

func TestRunHeadless_ToneCoreFlatOut(t *testing.T) {
	dir := t.TempDir()
	f := headlessFlags(dir)
	c, err := openCore("", f.Rate, f.FPS)
	if err != nil {
		t.Fatalf("openCore: %v", err)
	}
	ch, _ := audio.ForSampleRate(f.Rate, audio.Overwrite)
	rend := audio.NewRenderer(ch)
	store := save.NewFileStore(filepath.Join(dir, "saves"))

	if err := runHeadless(f, c, ch, rend, pacing.New(0, nil), store, nil); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if _, err := os.Stat(f.PNGOut); err != nil {
		t.Fatalf("PNG not written: %v", err)
	}
	fi, err := os.Stat(f.RawAudio)
	if err != nil {
		t.Fatalf("raw audio not written: %v", err)
	}
	// 30 frames at 800 stereo frames each, 8 bytes per frame.
	if want := int64(30 * 800 * audio.BytesPerFrame); fi.Size() != want {
		t.Fatalf("raw audio got %d bytes, want %d", fi.Size(), want)
	}
	if _, err := os.Stat(filepath.Join(dir, "saves", "TONE.sav")); err != nil {
		t.Fatalf("save RAM not persisted: %v", err)
	}
}

func TestRunHeadless_ChecksumMismatch(t *testing.T) {
	f := headlessFlags(t.TempDir())
	f.PNGOut, f.RawAudio = "", ""
	f.Expect = "0xdeadbeef"
	c, _ := openCore("", f.Rate, f.FPS)
	ch, _ := audio.ForSampleRate(f.Rate, audio.Overwrite)
	err := runHeadless(f, c, ch, audio.NewRenderer(ch), pacing.New(0, nil), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("err = %v, want checksum mismatch", err)
	}
}

func TestOpenCore_GameBoyNeedsExternalCore(t *testing.T) {
	rom := make([]byte, 0x8000)
	for addr := 0x0134; addr <= 0x014C; addr++ {
		rom[0x014D] = rom[0x014D] - rom[addr] - 1
	}
	path := filepath.Join(t.TempDir(), "x.gb")
	if err := os.WriteFile(path, rom, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := openCore(path, 48000, 60); !errors.Is(err, errNoCore) {
		t.Fatalf("err = %v, want errNoCore", err)
	}
}

func TestRunHeadless_PacedStopsAtFrameBudget(t *testing.T) {
	f := headlessFlags(t.TempDir())
	f.PNGOut, f.RawAudio = "", ""
	f.Limit = true
	f.Frames = 6
	c, _ := openCore("", f.Rate, f.FPS)
	ch, _ := audio.ForSampleRate(f.Rate, audio.Overwrite)
	rend := audio.NewRenderer(ch)
	sched := pacing.New(pacing.TargetForFPS(f.FPS), nil)

	done := make(chan error, 1)
	go func() { done <- runHeadless(f, c, ch, rend, sched, nil, nil) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runHeadless: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("paced headless run did not stop at its frame budget")
	}
	if got := sched.Stats().Frames; got != uint64(f.Frames) {
		t.Fatalf("scheduler ran %d frames, want %d", got, f.Frames)
	}
	if rend.Rendered() == 0 {
		t.Fatalf("null device rendered nothing during the paced run")
	}
}

func TestRunHeadless_RawAudioFlushErrorIsReported(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this system")
	}
	f := headlessFlags(t.TempDir())
	f.PNGOut = ""
	f.RawAudio = "/dev/full"
	f.Rate = 6000 // 100 frames per step stays inside the write buffer
	f.Frames = 2
	c, _ := openCore("", f.Rate, f.FPS)
	ch, _ := audio.ForSampleRate(f.Rate, audio.Overwrite)
	err := runHeadless(f, c, ch, audio.NewRenderer(ch), pacing.New(0, nil), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "raw audio") {
		t.Fatalf("err = %v, want a raw audio write error", err)
	}
}
