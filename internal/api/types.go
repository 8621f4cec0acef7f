package api

import (
	"time"

	"voxtale/internal/domain"
)

// Wire types mirroring the backend's JSON schema. Kept separate from the
// domain types so backend schema drift stays contained here.

type voiceJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (v voiceJSON) toDomain() domain.VoiceProfile {
	return domain.VoiceProfile{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Language:    v.Language,
		CreatedAt:   v.CreatedAt,
	}
}

type generationRequestJSON struct {
	Text           string  `json:"text"`
	VoiceID        string  `json:"voice_id"`
	PitchSemitones float64 `json:"pitch_shift_semitones,omitempty"`
	FormantShift   float64 `json:"formant_shift,omitempty"`
	BlendVoiceID   string  `json:"blend_voice_id,omitempty"`
	BlendWeight    float64 `json:"blend_weight,omitempty"`
}

type generationJSON struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	Text            string    `json:"text"`
	VoiceID         string    `json:"voice_id"`
	PitchSemitones  float64   `json:"pitch_shift_semitones"`
	FormantShift    float64   `json:"formant_shift"`
	BlendVoiceID    string    `json:"blend_voice_id"`
	BlendWeight     float64   `json:"blend_weight"`
	DurationSeconds float64   `json:"duration_seconds"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (g generationJSON) toDomain() domain.Generation {
	return domain.Generation{
		ID:     g.ID,
		Status: domain.GenerationStatus(g.Status),
		Params: domain.GenerationParams{
			Text:           g.Text,
			VoiceID:        g.VoiceID,
			PitchSemitones: g.PitchSemitones,
			FormantShift:   g.FormantShift,
			BlendVoiceID:   g.BlendVoiceID,
			BlendWeight:    g.BlendWeight,
		},
		DurationSeconds: g.DurationSeconds,
		Error:           g.Error,
		CreatedAt:       g.CreatedAt,
	}
}

type storyItemJSON struct {
	ID              string  `json:"id"`
	GenerationID    string  `json:"generation_id,omitempty"`
	StartTimeMs     float64 `json:"start_time_ms"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type storyJSON struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Items     []storyItemJSON `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s storyJSON) toDomain() *domain.Story {
	story := &domain.Story{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, it := range s.Items {
		story.Items = append(story.Items, domain.TimelineItem{
			ID:              it.ID,
			StartTimeMs:     it.StartTimeMs,
			DurationSeconds: it.DurationSeconds,
		})
	}
	return story
}

func storyToJSON(s *domain.Story) storyJSON {
	out := storyJSON{
		ID:    s.ID,
		Title: s.Title,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, storyItemJSON{
			ID:              it.ID,
			StartTimeMs:     it.StartTimeMs,
			DurationSeconds: it.DurationSeconds,
		})
	}
	return out
}

type errorJSON struct {
	Error string `json:"error"`
}
