package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/pacing"
)

const lineH = 14

// helpLines describes the current bindings.
func helpLines(km input.KeyMap) []string {
	lines := []string{"Controls:"}
	for _, b := range input.Buttons {
		keys := km.KeysFor(b)
		if len(keys) == 0 {
			keys = []string{"-"}
		}
		lines = append(lines, fmt.Sprintf("  %-6s %s", b, strings.Join(keys, " ")))
	}
	return append(lines,
		"",
		"  +/-  scale   P pause   N step",
		"  F5/F9 state  F3 stats  F12 shot",
		"  H    close",
	)
}

// statsLines summarizes the audio path and pacing.
func statsLines(ch *audio.Channel, r *audio.Renderer, st pacing.Stats) []string {
	ms := func(d time.Duration) string { return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond)) }
	return []string{
		fmt.Sprintf("frames   %d (late %d)", st.Frames, st.Late),
		fmt.Sprintf("step     %s  wait %s", ms(st.LastCost), ms(st.LastDelay)),
		fmt.Sprintf("buffered %d/%d", ch.BufferedFrames(), ch.Cap()/2),
		fmt.Sprintf("underrun %d", r.Underruns()),
		fmt.Sprintf("overrun  %d  drop %d", ch.Overruns(), ch.Dropped()),
	}
}

func drawLines(screen *ebiten.Image, lines []string, x, y int) {
	for i, s := range lines {
		ebitenutil.DebugPrintAt(screen, s, x, y+i*lineH)
	}
}

type toast struct {
	msg   string
	until time.Time
}

func (t *toast) show(msg string, now time.Time) {
	t.msg = msg
	t.until = now.Add(2 * time.Second)
}

func (t *toast) active(now time.Time) bool { return t.msg != "" && now.Before(t.until) }
