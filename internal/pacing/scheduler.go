// Package pacing drives the producer side of the bridge at a fixed frame
// cadence.
package pacing

import (
	"context"
	"time"
)

// DefaultTarget is one frame at 60 Hz.
const DefaultTarget = time.Second / 60

// Clock is the time source the scheduler reads and waits on.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// NextDelay returns how long to wait before the next frame so that frames
// start target apart. It is never negative.
func NextDelay(target, elapsed time.Duration) time.Duration {
	if d := target - elapsed; d > 0 {
		return d
	}
	return 0
}

// TargetForFPS converts a frame rate to a frame duration. Non-positive rates
// give DefaultTarget.
func TargetForFPS(fps float64) time.Duration {
	if fps <= 0 {
		return DefaultTarget
	}
	return time.Duration(float64(time.Second) / fps)
}

// Scheduler paces a step function. It is not safe for concurrent use; it
// belongs to the producer.
type Scheduler struct {
	clock  Clock
	target time.Duration

	lastStart time.Time
	next      time.Time
	lastDelay time.Duration
	lastCost  time.Duration

	frames uint64
	late   uint64
}

// New returns a scheduler aiming for one frame per target. A nil clock means
// SystemClock; a non-positive target means DefaultTarget.
func New(target time.Duration, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	if target <= 0 {
		target = DefaultTarget
	}
	return &Scheduler{clock: clock, target: target}
}

// Target returns the frame duration the scheduler aims for.
func (s *Scheduler) Target() time.Duration { return s.target }

// Frame runs one step and returns the delay before the next one should
// start. The frame timestamp is taken before the step runs, so the delay
// absorbs the step's own cost; a step slower than the target yields zero.
func (s *Scheduler) Frame(step func()) time.Duration {
	start := s.clock.Now()
	s.lastStart = start

	step()

	elapsed := s.clock.Now().Sub(start)
	d := NextDelay(s.target, elapsed)
	if d == 0 {
		s.late++
	}
	s.next = s.nextDeadline(start, elapsed)
	s.lastDelay = d
	s.lastCost = elapsed
	s.frames++
	return d
}

// nextDeadline anchors the following frame one target after the deadline
// this frame was due at, so display ticks that land slightly early or late
// do not drift the cadence. A frame started far from its deadline (slow step,
// manual step) re-anchors on its own start. The deadline is never earlier
// than the end of the step.
func (s *Scheduler) nextDeadline(start time.Time, elapsed time.Duration) time.Time {
	base := s.next
	if base.IsZero() || start.Sub(base) >= s.target || base.Sub(start) > s.slack() {
		base = start
	}
	next := base.Add(s.target)
	if end := start.Add(elapsed); next.Before(end) {
		next = end
	}
	return next
}

// slack is how early a display tick may arrive and still count as due.
func (s *Scheduler) slack() time.Duration { return s.target / 4 }

// Due reports whether the next frame should run on a tick at now. Ticks up to
// a quarter target early count, so a display refreshing at the target rate
// does not skip frames on jitter. It is true before the first frame.
func (s *Scheduler) Due(now time.Time) bool {
	return !now.Before(s.next.Add(-s.slack()))
}

// Run steps until ctx is cancelled, waiting out each computed delay.
func (s *Scheduler) Run(ctx context.Context, step func()) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := s.Frame(step)
		if d == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(d):
		}
	}
}

// Stats is a snapshot of the scheduler counters.
type Stats struct {
	Frames    uint64
	Late      uint64 // frames whose step took at least the target
	LastDelay time.Duration
	LastCost  time.Duration
	LastStart time.Time
}

// Stats returns the current counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Frames:    s.frames,
		Late:      s.late,
		LastDelay: s.lastDelay,
		LastCost:  s.lastCost,
		LastStart: s.lastStart,
	}
}
