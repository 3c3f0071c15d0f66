// Command ringbench drives an audio.Channel with a paced producer and a
// callback-style consumer and reports how the ring behaved.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/pacing"
)

type result struct {
	Produced  uint64
	Rendered  uint64
	Underruns uint64
	Overruns  uint64
	Dropped   uint64
	Late      uint64
}

// run produces one video frame of a sine tone per scheduler tick and pulls
// callback-sized chunks on a ticker until ctx ends.
func run(ctx context.Context, ch *audio.Channel, rate int, fps float64, callbackFrames int, jitter time.Duration) (result, error) {
	rend := audio.NewRenderer(ch)
	sched := pacing.New(pacing.TargetForFPS(fps), nil)
	perFrame := float64(rate) / fps

	var res result
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var acc, phase float64
		buf := make([]float32, 0, 2*int(perFrame+2))
		err := sched.Run(ctx, func() {
			acc += perFrame
			n := int(acc)
			acc -= float64(n)
			buf = buf[:0]
			for i := 0; i < n; i++ {
				v := float32(0.25 * math.Sin(2*math.Pi*phase))
				phase += 440 / float64(rate)
				buf = append(buf, v, v)
			}
			res.Produced += uint64(ch.WriteSamples(buf) / 2)
			if jitter > 0 && sched.Stats().Frames%30 == 0 {
				time.Sleep(jitter)
			}
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		out := make([]float32, 2*callbackFrames)
		period := time.Duration(float64(callbackFrames) / float64(rate) * float64(time.Second))
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				rend.Render(out)
			}
		}
	})
	err := g.Wait()
	res.Rendered = rend.Rendered()
	res.Underruns = rend.Underruns()
	res.Overruns = ch.Overruns()
	res.Dropped = ch.Dropped()
	res.Late = sched.Stats().Late
	return res, err
}

func main() {
	rate := flag.Int("rate", 48000, "sample rate in Hz")
	fps := flag.Float64("fps", 60, "producer frames per second")
	policyName := flag.String("policy", "overwrite", "overrun policy: overwrite or drop")
	callback := flag.Int("callback", 512, "frames per consumer callback")
	capFrames := flag.Int("cap", 0, "ring capacity in stereo frames; 0 means one second")
	duration := flag.Duration("duration", 5*time.Second, "how long to run")
	jitter := flag.Duration("jitter", 0, "stall the producer this long every 30 frames")
	auto := flag.Bool("auto", false, "exit 1 if any underrun or overrun was seen")
	flag.Parse()

	policy, err := audio.ParsePolicy(*policyName)
	if err != nil {
		log.Fatal(err)
	}
	n := *capFrames
	if n <= 0 {
		n = *rate
	}
	ch, err := audio.NewChannel(2*n, policy)
	if err != nil {
		log.Fatalf("channel: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	start := time.Now()
	res, err := run(ctx, ch, *rate, *fps, *callback, *jitter)
	if err != nil {
		log.Fatal(err)
	}
	dur := time.Since(start)

	fmt.Printf("ringbench: policy=%s cap=%d elapsed=%s produced=%d rendered=%d underruns=%d overruns=%d dropped=%d late=%d\n",
		policy, n, dur.Truncate(time.Millisecond), res.Produced, res.Rendered, res.Underruns, res.Overruns, res.Dropped, res.Late)
	if *auto && (res.Underruns > 0 || res.Overruns > 0 || res.Dropped > 0) {
		os.Exit(1)
	}
}
