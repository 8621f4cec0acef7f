// Package audio implements the audio output primitive over the system
// audio device (oto), plus the clip decoding it needs.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"

	"voxtale/internal/domain"
)

// Format describes decoded PCM: 16-bit signed little-endian at the given
// rate and channel count.
type Format struct {
	SampleRate int
	Channels   int
}

// bytesPerFrame is the size of one sample frame (all channels).
func (f Format) bytesPerFrame() int {
	return f.Channels * 2
}

// decode sniffs the container format and returns interleaved 16-bit PCM.
// The backend serves clips as WAV or MP3; anything else is ErrBadAudio.
func decode(data []byte) ([]byte, Format, error) {
	if len(data) >= 4 && string(data[:4]) == "RIFF" {
		return decodeWAV(data)
	}
	return decodeMP3(data)
}

func decodeWAV(data []byte) ([]byte, Format, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, Format{}, fmt.Errorf("%w: %v", domain.ErrBadAudio, err)
	}
	if dec.BitDepth != 16 {
		return nil, Format{}, fmt.Errorf("%w: %d-bit wav, want 16", domain.ErrBadAudio, dec.BitDepth)
	}

	f := Format{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		v := int16(s)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return pcm, f, nil
}

func decodeMP3(data []byte) ([]byte, Format, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, Format{}, fmt.Errorf("%w: %v", domain.ErrBadAudio, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, Format{}, fmt.Errorf("%w: %v", domain.ErrBadAudio, err)
	}

	// go-mp3 always yields 16-bit stereo at the source rate.
	return pcm, Format{SampleRate: dec.SampleRate(), Channels: 2}, nil
}

// offsetBytes converts a time offset into a frame-aligned byte offset
// into the PCM stream.
func offsetBytes(f Format, offset time.Duration) int {
	if offset <= 0 {
		return 0
	}
	frames := int(offset.Seconds() * float64(f.SampleRate))
	return frames * f.bytesPerFrame()
}

// pcmDuration returns the playable length of a PCM stream.
func pcmDuration(f Format, n int) time.Duration {
	frames := n / f.bytesPerFrame()
	return time.Duration(float64(frames) / float64(f.SampleRate) * float64(time.Second))
}
