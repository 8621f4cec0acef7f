package timeline

import (
	"testing"

	"voxtale/internal/domain"
	"voxtale/internal/logger"
)

func testItems() []domain.TimelineItem {
	return []domain.TimelineItem{
		{ID: "a", StartTimeMs: 0, DurationSeconds: 5},
		{ID: "b", StartTimeMs: 5000, DurationSeconds: 3},
	}
}

func TestPlayComputesDurations(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", testItems())

	snap := s.Snapshot()
	if !snap.Playing {
		t.Fatal("expected playing after Play")
	}
	if snap.PositionMs != 0 {
		t.Fatalf("expected position 0, got %.0f", snap.PositionMs)
	}
	if snap.TotalMs != 8000 {
		t.Fatalf("expected total 8000, got %.0f", snap.TotalMs)
	}
	if snap.StoryID != "s1" {
		t.Fatalf("expected story s1, got %s", snap.StoryID)
	}
}

func TestPlayStartsAtEarliestItem(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", []domain.TimelineItem{
		{ID: "late", StartTimeMs: 4000, DurationSeconds: 2},
		{ID: "early", StartTimeMs: 1500, DurationSeconds: 2},
	})

	if snap := s.Snapshot(); snap.PositionMs != 1500 {
		t.Fatalf("expected position at earliest start 1500, got %.0f", snap.PositionMs)
	}
}

func TestResumeSemantics(t *testing.T) {
	tests := []struct {
		name    string
		storyID string
		wantPos float64
	}{
		{"same story resumes position", "s1", 3000},
		{"different story restarts", "s2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logger.Discard())
			s.Play("s1", testItems())
			s.Tick(3000)
			s.Pause()

			s.Play(tt.storyID, testItems())
			snap := s.Snapshot()
			if !snap.Playing {
				t.Fatal("expected playing after Play")
			}
			if snap.PositionMs != tt.wantPos {
				t.Fatalf("expected position %.0f, got %.0f", tt.wantPos, snap.PositionMs)
			}
		})
	}
}

func TestTickAdvancesAndClamps(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", testItems())

	// Zero delta never moves the clock.
	if snap := s.Tick(0); snap.PositionMs != 0 {
		t.Fatalf("tick(0) moved clock to %.0f", snap.PositionMs)
	}

	// Monotonic advancement.
	last := 0.0
	for _, d := range []float64{16, 16, 500, 1000} {
		snap := s.Tick(d)
		if snap.PositionMs < last {
			t.Fatalf("clock went backwards: %.0f -> %.0f", last, snap.PositionMs)
		}
		last = snap.PositionMs
	}

	// Overshooting clamps to total and auto-stops, position pinned.
	snap := s.Tick(1e9)
	if snap.PositionMs != 8000 {
		t.Fatalf("expected clamp at 8000, got %.0f", snap.PositionMs)
	}
	if snap.Playing {
		t.Fatal("expected auto-stop at end of timeline")
	}

	// Distinct from Stop: position stays at the end until Stop resets it.
	if snap := s.Snapshot(); snap.PositionMs != 8000 {
		t.Fatalf("expected pinned position 8000, got %.0f", snap.PositionMs)
	}
	s.Stop()
	if snap := s.Snapshot(); snap.PositionMs != 0 || snap.Items != nil {
		t.Fatalf("expected full reset after Stop, got pos=%.0f items=%v", snap.PositionMs, snap.Items)
	}
}

func TestTickIsNoOpWhenNotPlaying(t *testing.T) {
	s := New(logger.Discard())

	// Nothing loaded.
	if snap := s.Tick(100); snap.PositionMs != 0 {
		t.Fatalf("tick moved clock with no items: %.0f", snap.PositionMs)
	}

	// Paused.
	s.Play("s1", testItems())
	s.Tick(1000)
	s.Pause()
	before := s.Snapshot().PositionMs
	if snap := s.Tick(1000); snap.PositionMs != before {
		t.Fatalf("tick moved clock while paused: %.0f -> %.0f", before, snap.PositionMs)
	}
}

func TestPauseKeepsPosition(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", testItems())
	s.Tick(2500)
	s.Pause()

	snap := s.Snapshot()
	if snap.Playing {
		t.Fatal("expected paused")
	}
	if snap.PositionMs != 2500 {
		t.Fatalf("expected position 2500 after pause, got %.0f", snap.PositionMs)
	}
	if snap.Items == nil {
		t.Fatal("expected items retained across pause")
	}
}

func TestSeekClamps(t *testing.T) {
	tests := []struct {
		name   string
		seekMs float64
		want   float64
	}{
		{"within range", 6000, 6000},
		{"past end", 20000, 8000},
		{"negative", -50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logger.Discard())
			s.Play("s1", testItems())
			s.Seek(tt.seekMs)
			if got := s.Snapshot().PositionMs; got != tt.want {
				t.Fatalf("seek(%.0f): expected %.0f, got %.0f", tt.seekMs, tt.want, got)
			}
		})
	}
}

func TestSeekDoesNotChangeIntent(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", testItems())
	s.Pause()
	s.Seek(4000)
	if s.Snapshot().Playing {
		t.Fatal("seek changed play intent")
	}
}

func TestEmptyItemSet(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", nil)

	snap := s.Snapshot()
	if snap.TotalMs != 0 {
		t.Fatalf("expected total 0 for empty set, got %.0f", snap.TotalMs)
	}

	// Any tick immediately satisfies the end condition.
	snap = s.Tick(16)
	if snap.Playing {
		t.Fatal("expected auto-stop on first tick of empty set")
	}
	if snap.PositionMs != 0 {
		t.Fatalf("expected position 0, got %.0f", snap.PositionMs)
	}
}

func TestActiveItem(t *testing.T) {
	items := []domain.TimelineItem{
		{ID: "a", StartTimeMs: 0, DurationSeconds: 2},
		{ID: "b", StartTimeMs: 10000, DurationSeconds: 2},
	}

	tests := []struct {
		name   string
		timeMs float64
		want   string // "" = nil
	}{
		{"inside first", 1000, "a"},
		{"start is inclusive", 0, "a"},
		{"end is exclusive", 2000, ""},
		{"in gap", 3000, ""},
		{"start of second", 10000, "b"},
		{"past everything", 50000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveItem(items, tt.timeMs)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected nil, got %s", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestNextItem(t *testing.T) {
	// Deliberately unsorted.
	items := []domain.TimelineItem{
		{ID: "c", StartTimeMs: 9000, DurationSeconds: 1},
		{ID: "a", StartTimeMs: 0, DurationSeconds: 2},
		{ID: "b", StartTimeMs: 4000, DurationSeconds: 2},
	}

	tests := []struct {
		name   string
		timeMs float64
		want   string
	}{
		{"before everything", -1, "a"},
		{"strictly after equal start", 0, "b"},
		{"mid gap", 2500, "b"},
		{"between b and c", 6000, "c"},
		{"after last", 9000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextItem(items, tt.timeMs)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected nil, got %s", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestScenarioCrossingClipBoundary(t *testing.T) {
	s := New(logger.Discard())
	s.Play("s1", testItems())

	snap := s.Tick(5000)
	active := ActiveItem(snap.Items, snap.PositionMs)
	if active == nil || active.ID != "b" {
		t.Fatalf("expected item b active at 5000ms, got %v", active)
	}
	if offset := snap.PositionMs - active.StartTimeMs; offset != 0 {
		t.Fatalf("expected offset 0 into b, got %.0f", offset)
	}
}
