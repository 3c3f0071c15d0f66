package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio/device"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/bridge"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/core"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/core/nescore"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/core/tone"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/pacing"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/save"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/ui"
)

type CLIFlags struct {
	ROMPath string
	Scale   int
	Title   string

	// audio
	Backend  string
	Rate     int
	BufferMs int
	Policy   string
	Mono     bool

	FPS     float64
	Limit   bool // pace headless runs in real time
	SaveRAM bool
	SaveDir string
	Keys    string // e.g. "A=X,B=C"
	Profile string // cpu|mem

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
	RawAudio string // write consumed audio as raw float32 LE stereo
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.nes); empty runs the built-in tone core")
	flag.IntVar(&f.Scale, "scale", 3, "window scale (1-7)")
	flag.StringVar(&f.Title, "title", "", "window title (defaults to the ROM title)")

	flag.StringVar(&f.Backend, "audio", "ebiten", "audio backend: ebiten, oto, portaudio, null")
	flag.IntVar(&f.Rate, "rate", 48000, "audio sample rate in Hz")
	flag.IntVar(&f.BufferMs, "buffer", 40, "audio device buffer in ms")
	flag.StringVar(&f.Policy, "policy", "overwrite", "sample channel overrun policy: overwrite or drop")
	flag.BoolVar(&f.Mono, "mono", false, "fold audio to mono")

	flag.Float64Var(&f.FPS, "fps", 60, "target frames per second")
	flag.BoolVar(&f.Limit, "limit", true, "pace headless runs at -fps instead of running flat out")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM on exit and load on start")
	flag.StringVar(&f.SaveDir, "savedir", "saves", "directory for save RAM and save states")
	flag.StringVar(&f.Keys, "keys", "", "key binding overrides, e.g. A=X,B=C,Start=Space")
	flag.StringVar(&f.Profile, "profile", "", "write a cpu or mem profile")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.StringVar(&f.RawAudio, "rawaudio", "", "headless: write consumed audio (f32le stereo) to path")
	flag.Parse()
	return f
}

var errNoCore = errors.New("no core for this image")

// openCore picks a core from the ROM image. An empty path selects the tone
// core.
func openCore(path string, rate int, fps float64) (core.Core, error) {
	if path == "" {
		return tone.New(rate, fps), nil
	}
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := cart.Identify(rom)
	if err != nil {
		return nil, fmt.Errorf("identify %s: %w", path, err)
	}
	log.Printf("ROM: kind=%s title=%q mapper=%d battery=%v", info.Kind, info.Title, info.Mapper, info.Battery)
	switch info.Kind {
	case cart.NES:
		return nescore.Open(path, rate, fps)
	default:
		return nil, fmt.Errorf("%w: %s", errNoCore, info.Kind)
	}
}

func startProfile(kind string) interface{ Stop() } {
	switch strings.ToLower(kind) {
	case "":
		return nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		log.Fatalf("unknown -profile %q (want cpu or mem)", kind)
		return nil
	}
}

func main() {
	f := parseFlags()
	if p := startProfile(f.Profile); p != nil {
		defer p.Stop()
	}

	policy, err := audio.ParsePolicy(f.Policy)
	if err != nil {
		log.Fatal(err)
	}
	keys, err := input.ParseKeyMap(input.DefaultKeyMap(), f.Keys)
	if err != nil {
		log.Fatal(err)
	}
	c, err := openCore(f.ROMPath, f.Rate, f.FPS)
	if err != nil {
		log.Fatal(err)
	}
	ch, err := audio.ForSampleRate(f.Rate, policy)
	if err != nil {
		log.Fatal(err)
	}
	rend := audio.NewRenderer(ch)
	rend.SetMono(f.Mono)

	var store save.Store
	if f.SaveRAM {
		store = save.NewFileStore(f.SaveDir)
	}
	sched := pacing.New(pacing.TargetForFPS(f.FPS), nil)
	bridgeLog := log.New(os.Stderr, "bridge: ", log.LstdFlags)

	if f.Headless {
		if err := runHeadless(f, c, ch, rend, sched, store, bridgeLog); err != nil {
			log.Fatal(err)
		}
		return
	}

	title := f.Title
	if title == "" {
		title = "gbstream - " + c.Title()
	}
	sess, err := bridge.New(bridge.Config{
		Core: c, Channel: ch, Store: store, Logger: bridgeLog,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := sess.LoadSave(); err != nil {
		log.Printf("%v", err)
	}
	defer sess.Close()

	backend, err := device.ParseKind(f.Backend)
	if err != nil {
		log.Fatal(err)
	}
	dev, err := device.Open(backend, rend, device.Options{
		SampleRate: f.Rate,
		BufferMs:   f.BufferMs,
		Logger:     log.New(os.Stderr, "audio: ", log.LstdFlags),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()
	if err := dev.Start(); err != nil {
		log.Fatal(err)
	}

	app := ui.NewApp(ui.Config{
		Title: title,
		Scale: f.Scale,
		Mono:  f.Mono,
		FPS:   f.FPS,
		Keys:  keys,
	}, sess, sched, rend, nil)
	sess.SetVideo(app)
	if err := app.Run(); err != nil {
		log.Printf("ui: %v", err)
	}
}
