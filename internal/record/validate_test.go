package record

import (
	"math"
	"strings"
	"testing"
)

// tone generates a mono sine take of the given length and amplitude
// (0..1 of full scale).
func tone(seconds float64, amplitude float64, sampleRate int) []int16 {
	n := int(seconds * float64(sampleRate))
	out := make([]int16, n)
	for i := range out {
		v := amplitude * math.Sin(2*math.Pi*220*float64(i)/float64(sampleRate))
		out[i] = int16(v * 32767)
	}
	return out
}

func TestValidateReference(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		wantErr string
	}{
		{"good take", tone(5, 0.5, SampleRate), ""},
		{"shortest allowed", tone(2, 0.5, SampleRate), ""},
		{"too short", tone(1, 0.5, SampleRate), "too short"},
		{"too long", tone(31, 0.5, SampleRate), "too long"},
		{"silence", make([]int16, 5*SampleRate), "too quiet"},
		{"near silence", tone(5, 0.001, SampleRate), "too quiet"},
		{"clipped", tone(5, 1.0, SampleRate), "clipped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReference(tt.samples, SampleRate)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReferenceBadSampleRate(t *testing.T) {
	if err := ValidateReference(tone(5, 0.5, SampleRate), 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	path := t.TempDir() + "/take.wav"
	samples := tone(2, 0.5, SampleRate)

	if err := EncodeWAV(path, samples); err != nil {
		t.Fatalf("encode: %v", err)
	}

	r := &Recorder{samples: samples}
	data, err := r.WriteWAV(t.TempDir() + "/take2.wav")
	if err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if len(data) < 44 || string(data[:4]) != "RIFF" {
		t.Fatalf("expected RIFF header, got %d bytes", len(data))
	}
}
