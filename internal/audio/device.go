package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
)

// Compile-time interface check.
var _ domain.Output = (*Device)(nil)

// endedPollInterval is how often the watcher checks whether the current
// clip has drained. oto has no completion callback; polling IsPlaying is
// how end-of-clip is detected.
const endedPollInterval = 50 * time.Millisecond

// defaultEventBuffer is the event channel capacity for outputs.
const defaultEventBuffer = 16

// DeviceOption configures the device.
type DeviceOption func(*Device)

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(n int) DeviceOption {
	return func(d *Device) {
		d.events = make(chan domain.OutputEvent, n)
	}
}

// Device is the single audio output handle. It lazily opens one oto
// context on the first clip and re-sources a single player across clips —
// at most one thing can be sounding at a time by construction.
//
// Load is asynchronous: fetching and decoding happen in a goroutine and
// the result arrives on Events. A generation counter identifies the
// current clip; results from a superseded Load are discarded.
type Device struct {
	source domain.ClipSource
	log    *logrus.Logger
	events chan domain.OutputEvent

	mu         sync.Mutex
	otoCtx     *oto.Context
	format     Format // format the oto context was opened with
	player     *oto.Player
	clipID     string
	gen        int
	playIntent bool
}

// NewDevice creates an audio output that fetches clip audio from source.
// The underlying audio context is not opened until the first Load.
func NewDevice(source domain.ClipSource, log *logrus.Logger, opts ...DeviceOption) *Device {
	d := &Device{
		source: source,
		log:    log,
		events: make(chan domain.OutputEvent, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load replaces the current clip. Returns immediately; OutputReady or
// OutputError follows on Events once the fetch+decode completes.
func (d *Device) Load(ctx context.Context, clipID string, offset time.Duration) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.clipID = clipID
	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
	d.mu.Unlock()

	go d.loadAsync(ctx, gen, clipID, offset)
}

// Play starts or resumes the current clip. If a load is still in flight,
// the clip starts sounding as soon as it is ready.
func (d *Device) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playIntent = true
	if d.player != nil {
		d.player.Play()
	}
}

// Pause silences the output, keeping the current clip and position.
func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playIntent = false
	if d.player != nil {
		d.player.Pause()
	}
}

// Events delivers asynchronous output notifications.
func (d *Device) Events() <-chan domain.OutputEvent {
	return d.events
}

// Close releases the current player. The oto context itself cannot be
// closed; it lives for the process.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++ // invalidate in-flight loads and watchers
	d.playIntent = false
	if d.player != nil {
		err := d.player.Close()
		d.player = nil
		return err
	}
	return nil
}

// loadAsync fetches, decodes, and installs a clip. Every step re-checks
// the generation so a Load that raced a newer one quietly drops out.
func (d *Device) loadAsync(ctx context.Context, gen int, clipID string, offset time.Duration) {
	data, err := d.source.Clip(ctx, clipID)
	if err != nil {
		d.emit(gen, domain.OutputEvent{ClipID: clipID, Kind: domain.OutputError, Err: err})
		return
	}

	pcm, f, err := decode(data)
	if err != nil {
		d.emit(gen, domain.OutputEvent{ClipID: clipID, Kind: domain.OutputError, Err: err})
		return
	}

	if err := d.ensureContext(f); err != nil {
		d.emit(gen, domain.OutputEvent{ClipID: clipID, Kind: domain.OutputError, Err: err})
		return
	}

	start := offsetBytes(f, offset)
	if start >= len(pcm) {
		// Nothing left to play at this offset; report a natural end so
		// the scheduler moves on.
		d.emit(gen, domain.OutputEvent{ClipID: clipID, Kind: domain.OutputEnded})
		return
	}

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	player := d.otoCtx.NewPlayer(bytes.NewReader(pcm[start:]))
	d.player = player
	if d.playIntent {
		player.Play()
	}
	d.mu.Unlock()

	d.log.Debugf("audio: clip %s loaded (%s of pcm, offset %s)", clipID, pcmDuration(f, len(pcm)-start), offset)
	d.emit(gen, domain.OutputEvent{ClipID: clipID, Kind: domain.OutputReady})

	go d.watchEnded(gen, clipID, player)
}

// ensureContext opens the oto context on first use and verifies that
// later clips match its format. No resampling happens here; the backend
// serves all clips of a story in one format.
func (d *Device) ensureContext(f Format) error {
	d.mu.Lock()
	if d.otoCtx != nil {
		match := d.format == f
		d.mu.Unlock()
		if !match {
			return fmt.Errorf("%w: clip is %dHz/%dch, device is %dHz/%dch",
				domain.ErrFormatMismatch, f.SampleRate, f.Channels, d.format.SampleRate, d.format.Channels)
		}
		return nil
	}
	d.mu.Unlock()

	// Opening the context can take a moment; do it outside the lock.
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.otoCtx == nil {
		d.otoCtx = octx
		d.format = f
		d.log.Debugf("audio: device opened (rate=%d, channels=%d)", f.SampleRate, f.Channels)
	}
	if d.format != f {
		return fmt.Errorf("%w: clip is %dHz/%dch, device is %dHz/%dch",
			domain.ErrFormatMismatch, f.SampleRate, f.Channels, d.format.SampleRate, d.format.Channels)
	}
	return nil
}

// watchEnded polls the player until the clip drains, then reports the
// natural end. Pausing does not count as an end: the poll only treats a
// non-playing player as drained while play intent is set.
func (d *Device) watchEnded(gen int, clipID string, player *oto.Player) {
	for {
		time.Sleep(endedPollInterval)

		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		intent := d.playIntent
		playing := player.IsPlaying()
		d.mu.Unlock()

		if !intent {
			continue
		}
		if !playing {
			d.emit(gen, domain.OutputEvent{ClipID: clipID, Kind: domain.OutputEnded})
			return
		}
	}
}

// emit sends an event unless the generation has moved on. Drops rather
// than blocks if the consumer is behind.
func (d *Device) emit(gen int, ev domain.OutputEvent) {
	d.mu.Lock()
	stale := gen != d.gen
	d.mu.Unlock()
	if stale {
		return
	}

	select {
	case d.events <- ev:
	default:
		d.log.Warnf("audio: dropping %s event for clip %s (consumer behind)", ev.Kind, ev.ClipID)
	}
}
