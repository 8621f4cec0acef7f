package audio

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
)

// Compile-time interface check.
var _ domain.Output = (*Noop)(nil)

// Noop is an output that plays nothing. Used for silent playback —
// the timeline clock still advances, so the player UI works without a
// sound device. Loads report ready immediately; no ended events are
// emitted, clip transitions ride on the clock alone.
type Noop struct {
	log    *logrus.Logger
	events chan domain.OutputEvent
}

// NewNoop creates a silent output.
func NewNoop(log *logrus.Logger) *Noop {
	return &Noop{
		log:    log,
		events: make(chan domain.OutputEvent, defaultEventBuffer),
	}
}

// Load pretends to load the clip and reports it ready.
func (n *Noop) Load(_ context.Context, clipID string, offset time.Duration) {
	n.log.Debugf("audio: no-op load %s at +%s", clipID, offset)
	select {
	case n.events <- domain.OutputEvent{ClipID: clipID, Kind: domain.OutputReady}:
	default:
	}
}

// Play does nothing.
func (n *Noop) Play() {}

// Pause does nothing.
func (n *Noop) Pause() {}

// Events returns the event stream.
func (n *Noop) Events() <-chan domain.OutputEvent { return n.events }

// Close does nothing.
func (n *Noop) Close() error { return nil }
