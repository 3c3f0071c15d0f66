package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/bridge"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/pacing"
)

// App is the windowed producer. ebiten calls Update once per display tick;
// the scheduler decides whether that tick runs a frame.
type App struct {
	cfg   Config
	sess  *bridge.Session
	sched *pacing.Scheduler
	rend  *audio.Renderer
	log   *log.Logger

	w, h int
	tex  *ebiten.Image
	pix  []byte
	dim  *ebiten.Image

	paused    bool
	showHelp  bool
	showStats bool
	note      toast

	keys   []ebiten.Key
	pad    input.PadTracker
	padIDs []ebiten.GamepadID
	events []input.Event
}

// NewApp builds the frontend. The session's video sink should be the App
// itself; see Present.
func NewApp(cfg Config, sess *bridge.Session, sched *pacing.Scheduler, rend *audio.Renderer, lg *log.Logger) *App {
	cfg.Defaults()
	if lg == nil {
		lg = log.Default()
	}
	w, h := sess.Core().Bounds()
	rend.SetMono(cfg.Mono)
	return &App{cfg: cfg, sess: sess, sched: sched, rend: rend, log: lg, w: w, h: h}
}

func (a *App) Run() error {
	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetWindowTitle(a.cfg.Title)
	a.applyWindowSize()
	return ebiten.RunGame(a)
}

// Present keeps the core's framebuffer until Draw uploads it.
func (a *App) Present(pix []byte) { a.pix = pix }

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(a.w*a.cfg.Scale, a.h*a.cfg.Scale)
}

func (a *App) Update() error {
	now := time.Now()
	a.pollKeyboard(now)
	a.pollGamepad()

	switch {
	case !a.paused:
		if a.sched.Due(now) {
			a.sched.Frame(a.sess.Step)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		a.sess.Step()
	}
	return nil
}

func (a *App) pollKeyboard(now time.Time) {
	a.keys = inpututil.AppendJustPressedKeys(a.keys[:0])
	for _, k := range a.keys {
		if a.hotkey(k, now) {
			continue
		}
		if e, ok := a.cfg.Keys.KeyEvent(k.String(), true); ok {
			a.sess.Queue().Push(e)
		}
	}
	a.keys = inpututil.AppendJustReleasedKeys(a.keys[:0])
	for _, k := range a.keys {
		if e, ok := a.cfg.Keys.KeyEvent(k.String(), false); ok {
			a.sess.Queue().Push(e)
		}
	}
}

// hotkey handles frontend keys. Bound game keys take priority.
func (a *App) hotkey(k ebiten.Key, now time.Time) bool {
	if _, bound := a.cfg.Keys.Lookup(k.String()); bound {
		return false
	}
	switch k {
	case ebiten.KeyP:
		a.paused = !a.paused
		a.rend.SetMuted(a.paused)
	case ebiten.KeyN:
		// handled in Update while paused
	case ebiten.KeyH:
		a.showHelp = !a.showHelp
	case ebiten.KeyF3:
		a.showStats = !a.showStats
	case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
		a.setScale(a.cfg.Scale + 1)
	case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
		a.setScale(a.cfg.Scale - 1)
	case ebiten.KeyF5:
		a.saveState(now)
	case ebiten.KeyF9:
		a.loadState(now)
	case ebiten.KeyF12:
		if path, err := a.saveScreenshot(now); err != nil {
			a.note.show("screenshot failed: "+err.Error(), now)
		} else {
			a.note.show("saved "+filepath.Base(path), now)
		}
	default:
		return false
	}
	return true
}

func (a *App) setScale(s int) {
	s = ClampScale(s)
	if s == a.cfg.Scale {
		return
	}
	a.cfg.Scale = s
	a.applyWindowSize()
}

func (a *App) saveState(now time.Time) {
	ok, err := a.sess.SaveState()
	switch {
	case err != nil:
		a.log.Printf("%v", err)
		a.note.show("save failed", now)
	case !ok:
		a.note.show("core has no save states", now)
	default:
		a.note.show("state saved", now)
	}
}

func (a *App) loadState(now time.Time) {
	ok, err := a.sess.LoadState()
	switch {
	case err != nil:
		a.log.Printf("%v", err)
		a.note.show("load failed", now)
	case !ok:
		a.note.show("no saved state", now)
	default:
		a.note.show("state loaded", now)
	}
}

func (a *App) pollGamepad() {
	a.padIDs = ebiten.AppendGamepadIDs(a.padIDs[:0])
	var s input.GamepadState
	if len(a.padIDs) > 0 && ebiten.IsStandardGamepadLayoutAvailable(a.padIDs[0]) {
		id := a.padIDs[0]
		s.Connected = true
		for i := range s.Buttons {
			s.Buttons[i] = ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButton(i))
		}
		for i := range s.Axes {
			s.Axes[i] = ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxis(i))
		}
	}
	a.events = a.pad.Events(s, a.events[:0])
	a.sess.Queue().PushAll(a.events)
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(a.w, a.h)
	}
	if len(a.pix) == 4*a.w*a.h {
		a.tex.WritePixels(a.pix)
	}
	screen.DrawImage(a.tex, nil)

	if a.showHelp || a.showStats || a.paused {
		if a.dim == nil {
			a.dim = ebiten.NewImage(a.w, a.h)
			a.dim.Fill(color.RGBA{0, 0, 0, 128})
		}
		screen.DrawImage(a.dim, nil)
	}
	switch {
	case a.showHelp:
		drawLines(screen, helpLines(a.cfg.Keys), 4, 4)
	case a.showStats:
		drawLines(screen, statsLines(a.sess.Channel(), a.rend, a.sched.Stats()), 4, 4)
	case a.paused:
		drawLines(screen, []string{"PAUSED (N: step)"}, 4, 4)
	}
	if now := time.Now(); a.note.active(now) {
		drawLines(screen, []string{a.note.msg}, 4, a.h-lineH-2)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return a.w, a.h }

func (a *App) saveScreenshot(now time.Time) (string, error) {
	if len(a.pix) != 4*a.w*a.h {
		return "", fmt.Errorf("no frame yet")
	}
	img := &image.RGBA{
		Pix:    append([]byte(nil), a.pix...),
		Stride: 4 * a.w,
		Rect:   image.Rect(0, 0, a.w, a.h),
	}
	name := filepath.Join(a.cfg.ShotDir, fmt.Sprintf("screenshot_%s.png", now.Format("20060102_150405")))
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, img)
}
