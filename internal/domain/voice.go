package domain

import (
	"errors"
	"fmt"
	"time"
)

// VoiceProfile is a cloneable voice registered with the backend, built
// from a reference audio sample.
type VoiceProfile struct {
	ID          string
	Name        string
	Description string
	Language    string
	CreatedAt   time.Time
}

// Formant shift is clamped by the backend to this range; the client
// validates before submitting so errors surface immediately.
const (
	FormantShiftMin = 0.7
	FormantShiftMax = 1.4
)

// Pitch shift bounds in semitones.
const (
	PitchShiftMin = -12.0
	PitchShiftMax = 12.0
)

// GenerationParams describes a single text-to-speech generation request.
type GenerationParams struct {
	Text    string
	VoiceID string

	// PitchSemitones shifts the generated pitch. 0 = unchanged.
	PitchSemitones float64
	// FormantShift warps the spectral envelope. 1.0 = unchanged.
	FormantShift float64

	// BlendVoiceID optionally names a secondary profile whose output is
	// mixed in at BlendWeight (0..1, weight of the secondary voice).
	BlendVoiceID string
	BlendWeight  float64
}

// Validate checks parameter ranges before submission so bad requests
// surface immediately instead of as backend rejections.
func (p GenerationParams) Validate() error {
	if p.Text == "" {
		return errors.New("text is required")
	}
	if p.VoiceID == "" {
		return errors.New("voice id is required")
	}
	if p.PitchSemitones < PitchShiftMin || p.PitchSemitones > PitchShiftMax {
		return fmt.Errorf("pitch shift %.1f outside [%.0f, %.0f] semitones", p.PitchSemitones, PitchShiftMin, PitchShiftMax)
	}
	if p.FormantShift != 0 && (p.FormantShift < FormantShiftMin || p.FormantShift > FormantShiftMax) {
		return fmt.Errorf("formant shift %.2f outside [%.1f, %.1f]", p.FormantShift, FormantShiftMin, FormantShiftMax)
	}
	if p.BlendWeight < 0 || p.BlendWeight > 1 {
		return fmt.Errorf("blend weight %.2f outside [0, 1]", p.BlendWeight)
	}
	if p.BlendVoiceID == "" && p.BlendWeight > 0 {
		return errors.New("blend weight set without a blend voice")
	}
	return nil
}

// GenerationStatus tracks a generation job on the backend.
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationProcessing GenerationStatus = "processing"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationFailed     GenerationStatus = "failed"
)

// Generation is a backend TTS job and, once completed, a playable clip.
type Generation struct {
	ID              string
	Status          GenerationStatus
	Params          GenerationParams
	DurationSeconds float64
	Error           string
	CreatedAt       time.Time
}

// Done reports whether the job has reached a terminal status.
func (g *Generation) Done() bool {
	return g.Status == GenerationCompleted || g.Status == GenerationFailed
}

// Reference audio constraints for voice profile creation. Uploads outside
// these bounds are rejected by the backend, so the client checks locally
// first.
const (
	ReferenceMinSeconds = 2.0
	ReferenceMaxSeconds = 30.0
	ReferenceMinRMS     = 0.01
	ReferencePeakLimit  = 0.99
)
