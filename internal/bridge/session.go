// Package bridge is the producer side of a frame: drain input, step the core,
// present video, push samples. It also owns the save-data lifecycle.
package bridge

import (
	"errors"
	"fmt"
	"log"

	"github.com/FabianRolfMatthiasNoll/gbstream/internal/audio"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/core"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/input"
	"github.com/FabianRolfMatthiasNoll/gbstream/internal/save"
)

var ErrNoCore = errors.New("bridge: no core")

// VideoSink receives one RGBA frame per step. pix is owned by the core and
// valid until the next step.
type VideoSink interface {
	Present(pix []byte)
}

type Config struct {
	Core    core.Core
	Queue   *input.Queue
	Channel *audio.Channel
	Video   VideoSink // optional
	Store   save.Store
	Logger  *log.Logger
}

// Session wires one core to its producers and sinks. Step must be called from
// a single goroutine.
type Session struct {
	core  core.Core
	queue *input.Queue
	ch    *audio.Channel
	video VideoSink
	store save.Store
	log   *log.Logger

	events    []input.Event
	frames    uint64
	shortOut  uint64 // samples the channel refused or dropped for odd length
	warnedOdd bool
}

func New(cfg Config) (*Session, error) {
	if cfg.Core == nil {
		return nil, ErrNoCore
	}
	if cfg.Queue == nil {
		cfg.Queue = input.NewQueue()
	}
	if cfg.Channel == nil {
		return nil, fmt.Errorf("bridge: nil audio channel")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Session{
		core:   cfg.Core,
		queue:  cfg.Queue,
		ch:     cfg.Channel,
		video:  cfg.Video,
		store:  cfg.Store,
		log:    cfg.Logger,
		events: make([]input.Event, 0, 32),
	}, nil
}

// SetVideo replaces the video sink. Call it before the first Step.
func (s *Session) SetVideo(v VideoSink) { s.video = v }

func (s *Session) Core() core.Core         { return s.core }
func (s *Session) Queue() *input.Queue     { return s.queue }
func (s *Session) Channel() *audio.Channel { return s.ch }
func (s *Session) Frames() uint64          { return s.frames }

// Refused counts samples that never reached the channel.
func (s *Session) Refused() uint64 { return s.shortOut }

// Step runs one frame. It is the body handed to the scheduler.
func (s *Session) Step() {
	s.events = s.queue.Drain(s.events)
	pix, samples := s.core.StepFrame(s.events)
	if s.video != nil && pix != nil {
		s.video.Present(pix)
	}
	if len(samples)%2 != 0 {
		if !s.warnedOdd {
			s.log.Printf("core %q produced an odd sample count (%d); dropping the trailing sample", s.core.Title(), len(samples))
			s.warnedOdd = true
		}
		samples = samples[:len(samples)-1]
		s.shortOut++
	}
	n := s.ch.WriteSamples(samples)
	s.shortOut += uint64(len(samples) - n)
	s.frames++
}

// LoadSave restores battery RAM from the store, keyed by the core's title.
// Cores without battery RAM are a no-op.
func (s *Session) LoadSave() error {
	bb, ok := s.core.(core.BatteryBacked)
	if !ok || s.store == nil {
		return nil
	}
	data, err := s.store.Load(s.core.Title())
	if err != nil {
		return fmt.Errorf("bridge: load save: %w", err)
	}
	if data == nil {
		return nil
	}
	bb.LoadRAM(data)
	s.log.Printf("loaded %d bytes of save RAM for %q", len(data), s.core.Title())
	return nil
}

// Persist writes battery RAM back to the store.
func (s *Session) Persist() error {
	bb, ok := s.core.(core.BatteryBacked)
	if !ok || s.store == nil {
		return nil
	}
	data := bb.SaveRAM()
	if len(data) == 0 {
		return nil
	}
	if err := s.store.Save(s.core.Title(), data); err != nil {
		return fmt.Errorf("bridge: persist: %w", err)
	}
	return nil
}

// stateKey keeps snapshots apart from battery saves in the same store.
func (s *Session) stateKey() string { return s.core.Title() + ".state" }

// SaveState snapshots the core into the store. ok is false when the core
// cannot snapshot.
func (s *Session) SaveState() (ok bool, err error) {
	sn, ok := s.core.(core.Snapshotter)
	if !ok || s.store == nil {
		return false, nil
	}
	if err := s.store.Save(s.stateKey(), sn.SaveState()); err != nil {
		return true, fmt.Errorf("bridge: save state: %w", err)
	}
	return true, nil
}

// LoadState restores the snapshot written by SaveState. A missing snapshot
// returns ok=false with no error.
func (s *Session) LoadState() (ok bool, err error) {
	sn, ok := s.core.(core.Snapshotter)
	if !ok || s.store == nil {
		return false, nil
	}
	data, err := s.store.Load(s.stateKey())
	if err != nil {
		return false, fmt.Errorf("bridge: load state: %w", err)
	}
	if data == nil {
		return false, nil
	}
	if err := sn.LoadState(data); err != nil {
		return false, fmt.Errorf("bridge: load state: %w", err)
	}
	return true, nil
}

// Close persists battery RAM. Failures are logged; save data is best effort.
func (s *Session) Close() {
	if err := s.Persist(); err != nil {
		s.log.Printf("%v", err)
	}
}
