package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio/device"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/bridge"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/core"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/pacing"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/save"
)

// lastFrame keeps the most recent framebuffer for the checksum and PNG.
type lastFrame struct{ pix []byte }

func (l *lastFrame) Present(pix []byte) { l.pix = pix }

// runHeadless steps the core for f.Frames frames with the null audio device
// consuming the channel. With -limit the scheduler paces frames in real time
// and the device runs on its own goroutine; without it frames run flat out and
// the device pulls whatever each frame produced.
func runHeadless(f CLIFlags, c core.Core, ch *audio.Channel, rend *audio.Renderer, sched *pacing.Scheduler, store save.Store, lg *log.Logger) error {
	frames := f.Frames
	if frames <= 0 {
		frames = 1
	}
	if lg == nil {
		lg = log.Default()
	}

	var (
		raw    io.Writer
		rawBuf *bufio.Writer
	)
	if f.RawAudio != "" {
		out, err := os.Create(f.RawAudio)
		if err != nil {
			return fmt.Errorf("raw audio: %w", err)
		}
		defer out.Close()
		rawBuf = bufio.NewWriter(out)
		raw = rawBuf
	}

	video := &lastFrame{}
	sess, err := bridge.New(bridge.Config{Core: c, Channel: ch, Video: video, Store: store, Logger: lg})
	if err != nil {
		return err
	}
	if err := sess.LoadSave(); err != nil {
		lg.Printf("%v", err)
	}
	defer sess.Close()

	dev := device.NewNull(rend, device.Options{
		SampleRate: f.Rate,
		BufferMs:   f.BufferMs,
		Raw:        raw,
		Logger:     log.New(io.Discard, "", 0),
	})

	start := time.Now()
	if f.Limit {
		if err := runPaced(sess, sched, dev, frames); err != nil {
			return err
		}
	} else {
		for i := 0; i < frames; i++ {
			sched.Frame(sess.Step)
			if err := dev.Pull(ch.BufferedFrames()); err != nil {
				return err
			}
		}
	}
	dur := time.Since(start)
	if rawBuf != nil {
		if err := rawBuf.Flush(); err != nil {
			return fmt.Errorf("raw audio: %w", err)
		}
	}

	w, h := c.Bounds()
	crc := crc32.ChecksumIEEE(video.pix)
	fps := float64(frames) / dur.Seconds()
	st := sched.Stats()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f late=%d underruns=%d overruns=%d dropped=%d fb_crc32=%08x",
		st.Frames, dur.Truncate(time.Millisecond), fps, st.Late, rend.Underruns(), ch.Overruns(), ch.Dropped()+sess.Refused(), crc)

	if f.PNGOut != "" {
		if err := saveFramePNG(video.pix, w, h, f.PNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", f.PNGOut)
	}

	if f.Expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(f.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// runPaced runs the scheduler and the null device side by side until the
// frame budget is spent.
func runPaced(sess *bridge.Session, sched *pacing.Scheduler, dev *device.NullDevice, frames int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel() // budget spent: stop the device too
		stepCtx, stop := context.WithCancel(ctx)
		defer stop()
		err := sched.Run(stepCtx, func() {
			sess.Step()
			if sess.Frames() >= uint64(frames) {
				stop()
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return dev.Run(ctx) })
	return g.Wait()
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	if len(pix) != 4*w*h {
		return fmt.Errorf("framebuffer is %d bytes, want %d", len(pix), 4*w*h)
	}
	img := &image.RGBA{
		Pix:    make([]byte, len(pix)),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
