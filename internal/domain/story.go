// Package domain defines the core types and interfaces for the voxtale client.
// All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// TimelineItem is one generated clip anchored at an offset on a story's
// shared playback timeline. Items are immutable values produced by the
// backend; the collection they arrive in may be unsorted and may contain
// gaps between items.
//
// Items are assumed not to overlap. Overlapping spans are a producer bug:
// the active-item lookup is first-match and becomes order-dependent when
// spans overlap.
type TimelineItem struct {
	ID              string
	StartTimeMs     float64
	DurationSeconds float64
}

// EndTimeMs returns the timeline offset at which the item stops sounding.
func (it TimelineItem) EndTimeMs() float64 {
	return it.StartTimeMs + it.DurationSeconds*1000
}

// Story is an ordered collection of timeline items sharing one playback
// timeline.
type Story struct {
	ID        string
	Title     string
	Items     []TimelineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalDurationMs returns the end of the last-ending item, or 0 for an
// empty story.
func (s *Story) TotalDurationMs() float64 {
	var total float64
	for _, it := range s.Items {
		if end := it.EndTimeMs(); end > total {
			total = end
		}
	}
	return total
}
