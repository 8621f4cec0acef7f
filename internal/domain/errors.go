package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrGenerationFailed = errors.New("generation failed")
	ErrClipUnavailable  = errors.New("clip audio unavailable")
	ErrBadAudio         = errors.New("unsupported or corrupt audio data")
	ErrFormatMismatch   = errors.New("clip format does not match output device")
)
