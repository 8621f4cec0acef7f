// Package timeline holds the authoritative playback state for one UI
// session: the virtual playhead clock, the active item set, and the
// play/pause/stop/seek intents. It performs no I/O; the playback
// scheduler reads this state and drives the audio device from it.
package timeline

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
)

// State is the playback clock and item set for one session. There is a
// single writer path: every mutation goes through the methods below, each
// of which is atomic from the caller's perspective.
type State struct {
	mu            sync.Mutex
	log           *logrus.Logger
	playing       bool
	currentTimeMs float64
	totalMs       float64
	storyID       string
	items         []domain.TimelineItem // nil when stopped
}

// Snapshot is a consistent read of the playback state.
type Snapshot struct {
	Playing    bool
	PositionMs float64
	TotalMs    float64
	StoryID    string
	Items      []domain.TimelineItem // nil when stopped
}

// New creates an empty, stopped timeline state.
func New(log *logrus.Logger) *State {
	return &State{log: log}
}

// Play loads the given item set and starts (or resumes) playback.
//
// If storyID matches the story that already owns the clock and the
// playhead is mid-timeline, the position is preserved — a resume. Any
// other call restarts from the earliest item start.
func (s *State) Play(storyID string, items []domain.TimelineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]domain.TimelineItem, len(items))
	copy(owned, items)

	total := 0.0
	minStart := 0.0
	for i, it := range owned {
		if end := it.EndTimeMs(); end > total {
			total = end
		}
		if i == 0 || it.StartTimeMs < minStart {
			minStart = it.StartTimeMs
		}
	}

	resume := s.storyID == storyID && s.currentTimeMs > 0
	if !resume {
		s.currentTimeMs = minStart
	}

	s.storyID = storyID
	s.items = owned
	s.totalMs = total
	s.playing = true

	s.log.Debugf("timeline: play story=%s items=%d total=%.0fms pos=%.0fms resume=%v",
		storyID, len(owned), total, s.currentTimeMs, resume)
}

// Pause stops clock advancement but keeps the position and item set so
// playback can resume where it left off.
func (s *State) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.log.Debugf("timeline: paused at %.0fms", s.currentTimeMs)
}

// Stop is the terminal reset: position back to zero, item set released,
// story ownership forgotten.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.currentTimeMs = 0
	s.totalMs = 0
	s.storyID = ""
	s.items = nil
	s.log.Debug("timeline: stopped")
}

// Seek moves the playhead, clamped to [0, total]. Play/pause intent is
// unchanged.
func (s *State) Seek(timeMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTimeMs = clamp(timeMs, 0, s.totalMs)
	s.log.Debugf("timeline: seek to %.0fms", s.currentTimeMs)
}

// Tick advances the clock by deltaMs and returns the resulting snapshot.
// No-op unless playing with items loaded. Reaching the end of the timeline
// flips playing off while pinning the position at the end — distinct from
// Stop, so the UI can show "finished" rather than "reset".
func (s *State) Tick(deltaMs float64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing || s.items == nil {
		return s.snapshotLocked()
	}

	s.currentTimeMs = clamp(s.currentTimeMs+deltaMs, 0, s.totalMs)
	if s.currentTimeMs >= s.totalMs {
		s.playing = false
		s.log.Debugf("timeline: reached end at %.0fms", s.totalMs)
	}
	return s.snapshotLocked()
}

// Snapshot returns a consistent read of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Playing:    s.playing,
		PositionMs: s.currentTimeMs,
		TotalMs:    s.totalMs,
		StoryID:    s.storyID,
		Items:      s.items,
	}
}

// ActiveItem returns the first item whose [start, end) span contains
// timeMs, or nil. Items are assumed non-overlapping, so first-match is
// well-defined; with overlapping input the result is order-dependent.
func ActiveItem(items []domain.TimelineItem, timeMs float64) *domain.TimelineItem {
	for i := range items {
		if items[i].StartTimeMs <= timeMs && timeMs < items[i].EndTimeMs() {
			return &items[i]
		}
	}
	return nil
}

// NextItem returns the item with the smallest start strictly greater than
// timeMs, or nil. An item starting exactly at timeMs is never "next" — it
// is either already active or in the past.
func NextItem(items []domain.TimelineItem, timeMs float64) *domain.TimelineItem {
	sorted := make([]domain.TimelineItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTimeMs < sorted[j].StartTimeMs
	})
	for i := range sorted {
		if sorted[i].StartTimeMs > timeMs {
			return &sorted[i]
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
