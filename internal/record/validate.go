package record

import (
	"fmt"
	"math"

	"voxtale/internal/domain"
)

// ValidateReference checks a captured take against the backend's
// reference-audio constraints before upload: length between
// ReferenceMinSeconds and ReferenceMaxSeconds, loud enough to carry
// voice content (RMS), and not clipped (peak).
func ValidateReference(samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	seconds := float64(len(samples)) / float64(sampleRate)
	if seconds < domain.ReferenceMinSeconds {
		return fmt.Errorf("recording too short: %.1fs (need at least %.0fs)", seconds, domain.ReferenceMinSeconds)
	}
	if seconds > domain.ReferenceMaxSeconds {
		return fmt.Errorf("recording too long: %.1fs (max %.0fs)", seconds, domain.ReferenceMaxSeconds)
	}

	var sumSq float64
	var peak float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sumSq += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))

	if rms < domain.ReferenceMinRMS {
		return fmt.Errorf("recording too quiet (rms=%.4f, need at least %.2f)", rms, domain.ReferenceMinRMS)
	}
	if peak >= domain.ReferencePeakLimit {
		return fmt.Errorf("recording is clipped (peak=%.3f)", peak)
	}
	return nil
}
