// Package record captures microphone audio for voice profile creation.
//
// The recorder opens a single capture device via miniaudio (malgo),
// accumulates mono 16-bit PCM until the context is cancelled, and can
// write the take out as a WAV file ready for upload.
package record

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

const (
	// SampleRate is fixed at 24 kHz mono, matching what the generation
	// backend expects for reference audio.
	SampleRate = 24000

	bitDepth      = 16
	channels      = 1
	audioQueueCap = 32
)

// Recorder captures one take from the default input device.
type Recorder struct {
	log *logrus.Logger

	samples []int16
}

// New creates a Recorder. Each Record call starts a fresh take.
func New(log *logrus.Logger) *Recorder {
	return &Recorder{log: log}
}

// Record captures audio until ctx is cancelled, then stops the device
// and keeps the take in memory. Returns the captured duration.
func (r *Recorder) Record(ctx context.Context) (time.Duration, error) {
	r.samples = r.samples[:0]

	mCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(_ string) {})
	if err != nil {
		return 0, fmt.Errorf("initializing audio backend: %w", err)
	}
	defer func() { _ = mCtx.Uninit(); mCtx.Free() }()

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.SampleRate = SampleRate
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = channels
	devCfg.Alsa.NoMMap = 1

	audioCh := make(chan []int16, audioQueueCap)
	var drops atomic.Int64

	callbacks := malgo.DeviceCallbacks{
		Data: func(_ []byte, raw []byte, _ uint32) {
			if len(raw) == 0 {
				return
			}
			n := len(raw) / 2
			pcm := make([]int16, n)
			for i := 0; i < n; i++ {
				pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			}
			select {
			case audioCh <- pcm:
			default:
				drops.Add(1)
			}
		},
	}

	device, err := malgo.InitDevice(mCtx.Context, devCfg, callbacks)
	if err != nil {
		return 0, fmt.Errorf("opening capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return 0, fmt.Errorf("starting capture: %w", err)
	}
	defer device.Stop()
	r.log.Debugf("record: capture started (rate=%d)", SampleRate)

	for {
		select {
		case <-ctx.Done():
			// Drain whatever the callback already queued.
			for {
				select {
				case frame := <-audioCh:
					r.samples = append(r.samples, frame...)
				default:
					if d := drops.Load(); d > 0 {
						r.log.Warnf("record: dropped %d audio frames", d)
					}
					dur := r.Duration()
					r.log.Infof("record: captured %.1fs (%d samples)", dur.Seconds(), len(r.samples))
					return dur, nil
				}
			}
		case frame := <-audioCh:
			r.samples = append(r.samples, frame...)
		}
	}
}

// Samples returns the captured PCM. Valid until the next Record call.
func (r *Recorder) Samples() []int16 {
	return r.samples
}

// Duration returns the length of the captured take.
func (r *Recorder) Duration() time.Duration {
	return time.Duration(float64(len(r.samples)) / SampleRate * float64(time.Second))
}

// WriteWAV writes the take to path as 16-bit mono WAV and returns the
// encoded bytes for upload.
func (r *Recorder) WriteWAV(path string) ([]byte, error) {
	if err := EncodeWAV(path, r.samples); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading back %s: %w", path, err)
	}
	return data, nil
}

// EncodeWAV writes mono 16-bit samples to path as a WAV file.
func EncodeWAV(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{SampleRate: SampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}
