package domain

import (
	"context"
	"time"
)

// ClipSource resolves a clip id to its encoded audio bytes (WAV or MP3).
// Implementations can be API-backed, cached, or in-memory for tests.
type ClipSource interface {
	Clip(ctx context.Context, clipID string) ([]byte, error)
}

// OutputEventKind classifies events emitted by an Output.
type OutputEventKind int

const (
	// OutputReady — the clip finished loading and is ready/sounding.
	OutputReady OutputEventKind = iota
	// OutputEnded — the clip played through to its natural end.
	OutputEnded
	// OutputError — loading or playback failed. Non-fatal; the clip is
	// simply silent for its span.
	OutputError
)

// String returns a human-readable event kind.
func (k OutputEventKind) String() string {
	switch k {
	case OutputReady:
		return "ready"
	case OutputEnded:
		return "ended"
	case OutputError:
		return "error"
	default:
		return "unknown"
	}
}

// OutputEvent is an asynchronous notification from the audio output. Every
// event carries the clip id it originated from so consumers can discard
// events from a since-replaced clip by id comparison.
type OutputEvent struct {
	ClipID string
	Kind   OutputEventKind
	Err    error
}

// Output is the single audio output handle the playback scheduler drives.
// Exactly one clip can be sourced at a time; Load replaces the previous
// clip. Load is fire-and-forget: it returns immediately and the result
// arrives on Events as OutputReady or OutputError.
type Output interface {
	// Load sources the output from the given clip, positioned offset into
	// the clip. If the output was playing, the new clip starts sounding as
	// soon as it is ready.
	Load(ctx context.Context, clipID string, offset time.Duration)
	// Play starts or resumes the current clip. While a load is in flight
	// the pending clip plays once ready.
	Play()
	// Pause silences the output, keeping the current clip and position.
	Pause()
	// Events delivers load/ended/error notifications. The channel is
	// buffered; the output drops events rather than block.
	Events() <-chan OutputEvent
	// Close releases the output device.
	Close() error
}

// StoryStore keeps the local story catalog (fetched stories and drafts).
// Implementations can be in-memory or file-backed.
type StoryStore interface {
	Save(ctx context.Context, story *Story) error
	Load(ctx context.Context, id string) (*Story, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Story, error)
}
