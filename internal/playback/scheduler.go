// Package playback implements the story playback scheduler: the effectful
// controller that translates the timeline's virtual clock into concrete
// single-output audio playback.
//
// The scheduler owns two event sources — a periodic frame tick and the
// audio output's event channel — and drains both on one cooperative loop,
// so all transitions read and write the shared timeline state from a
// single goroutine. Output events carry the clip id they originated from;
// events from a since-replaced clip are discarded by id comparison.
package playback

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
	"voxtale/internal/timeline"
)

// DefaultTickInterval approximates a display refresh.
const DefaultTickInterval = 16 * time.Millisecond

// Option configures the scheduler.
type Option func(*Scheduler)

// WithTickInterval sets the frame tick period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.tick = d
	}
}

// WithClock overrides the wall clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler drives a single audio output from the timeline state. One
// scheduler exists per output handle; Run is its only goroutine and the
// only writer of the transient fields below.
type Scheduler struct {
	state *timeline.State
	out   domain.Output
	log   *logrus.Logger

	tick time.Duration
	now  func() time.Time

	// Transient per-activation state, owned by the run loop. currentClip
	// is the clip the output is sourced from ("" = output idle); lastTick
	// is the wall-clock time of the previous frame (zero while idle), the
	// basis for clock advancement deltas.
	currentClip string
	lastTick    time.Time
}

// New creates a scheduler bound to the given state and output.
func New(state *timeline.State, out domain.Output, log *logrus.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		state: state,
		out:   out,
		log:   log,
		tick:  DefaultTickInterval,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes frame ticks and output events until ctx is cancelled.
// On exit the output is paused and the transient state cleared, so a
// later activation re-derives everything from the timeline state.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer s.deactivate()

	s.log.Debugf("playback: scheduler running (tick=%s)", s.tick)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("playback: scheduler stopped")
			return
		case <-ticker.C:
			s.frame(ctx, s.now())
		case ev := <-s.out.Events():
			s.handleEvent(ctx, ev)
		}
	}
}

// deactivate silences the output and forgets per-activation state.
func (s *Scheduler) deactivate() {
	s.out.Pause()
	s.currentClip = ""
	s.lastTick = time.Time{}
}

// frame runs one tick: advance the virtual clock by the wall-clock delta
// since the previous frame, recompute the active item, and re-source the
// output if the active item changed.
//
// The wall clock — not audio-reported time — is the master clock, so the
// playhead advances through gaps where nothing is sounding.
func (s *Scheduler) frame(ctx context.Context, now time.Time) {
	snap := s.state.Snapshot()
	if !snap.Playing || snap.Items == nil {
		// Externally paused or stopped. Silence the output and drop the
		// frame clock; re-activation starts fresh from the timeline state.
		if s.currentClip != "" || !s.lastTick.IsZero() {
			s.deactivate()
		}
		return
	}

	var deltaMs float64
	if !s.lastTick.IsZero() {
		deltaMs = float64(now.Sub(s.lastTick)) / float64(time.Millisecond)
	}
	s.lastTick = now

	snap = s.state.Tick(deltaMs)
	active := timeline.ActiveItem(snap.Items, snap.PositionMs)

	switch {
	case active == nil:
		// Gap, or the clock just clamped at the end (Tick auto-pauses
		// there). Either way nothing should be sounding.
		if s.currentClip != "" {
			s.log.Debugf("playback: entering gap at %.0fms", snap.PositionMs)
			s.out.Pause()
			s.currentClip = ""
		}
	case active.ID != s.currentClip:
		// Fresh activation lands mid-clip; frame-driven switches land at
		// the new item's own start, so the offset is 0 there.
		offset := time.Duration((snap.PositionMs - active.StartTimeMs) * float64(time.Millisecond))
		s.log.Debugf("playback: switching to clip %s at offset %s", active.ID, offset)
		s.out.Pause()
		s.out.Load(ctx, active.ID, offset)
		s.out.Play()
		s.currentClip = active.ID
	}
}

// handleEvent reacts to an asynchronous output notification. Every path
// re-checks the timeline state first: a stop or pause that raced the
// event makes it a no-op rather than an error.
func (s *Scheduler) handleEvent(ctx context.Context, ev domain.OutputEvent) {
	snap := s.state.Snapshot()
	if !snap.Playing || snap.Items == nil {
		return
	}
	if ev.ClipID != s.currentClip {
		s.log.Debugf("playback: ignoring stale %s event from clip %s", ev.Kind, ev.ClipID)
		return
	}

	switch ev.Kind {
	case domain.OutputReady:
		s.log.Debugf("playback: clip %s ready", ev.ClipID)

	case domain.OutputError:
		// Non-fatal: the clip is silent for its span, the clock keeps
		// running, and the next transition fires normally.
		s.log.Warnf("playback: clip %s failed: %v — continuing without audio", ev.ClipID, ev.Err)

	case domain.OutputEnded:
		// The clip drained at its natural end, which may not align
		// exactly with frame-computed boundaries. Jump the virtual clock
		// straight to the next item rather than replaying the gap in
		// real time.
		next := timeline.NextItem(snap.Items, snap.PositionMs)
		if next == nil {
			s.log.Debug("playback: last clip finished, stopping")
			s.out.Pause()
			s.currentClip = ""
			s.state.Stop()
			return
		}

		s.log.Debugf("playback: clip %s finished, jumping to %s at %.0fms", ev.ClipID, next.ID, next.StartTimeMs)
		s.state.Seek(next.StartTimeMs)
		s.lastTick = s.now() // the jump is not elapsed frame time
		s.out.Load(ctx, next.ID, 0)
		s.out.Play()
		s.currentClip = next.ID
	}
}
