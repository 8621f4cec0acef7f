package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voxtale/internal/domain"
	"voxtale/internal/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", logger.Discard(), WithPollInterval(time.Millisecond))
}

func TestListVoices(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/voices" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("missing auth header, got %q", got)
		}
		json.NewEncoder(w).Encode([]voiceJSON{
			{ID: "v1", Name: "Narrator", Language: "en"},
			{ID: "v2", Name: "Villain"},
		})
	}))

	voices, err := client.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("list voices: %v", err)
	}
	if len(voices) != 2 || voices[0].ID != "v1" || voices[1].Name != "Villain" {
		t.Fatalf("unexpected voices: %+v", voices)
	}
}

func TestCreateGenerationValidatesParams(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid params must not reach the backend")
	}))

	tests := []struct {
		name   string
		params domain.GenerationParams
	}{
		{"empty text", domain.GenerationParams{VoiceID: "v1"}},
		{"missing voice", domain.GenerationParams{Text: "hi"}},
		{"pitch out of range", domain.GenerationParams{Text: "hi", VoiceID: "v1", PitchSemitones: 40}},
		{"formant out of range", domain.GenerationParams{Text: "hi", VoiceID: "v1", FormantShift: 2.5}},
		{"blend weight out of range", domain.GenerationParams{Text: "hi", VoiceID: "v1", BlendVoiceID: "v2", BlendWeight: 1.5}},
		{"blend weight without voice", domain.GenerationParams{Text: "hi", VoiceID: "v1", BlendWeight: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.CreateGeneration(context.Background(), tt.params); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateGenerationSubmits(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generationRequestJSON
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Text != "hello" || req.VoiceID != "v1" || req.FormantShift != 1.2 {
			t.Fatalf("unexpected payload: %+v", req)
		}
		json.NewEncoder(w).Encode(generationJSON{ID: "g1", Status: "pending", Text: req.Text, VoiceID: req.VoiceID})
	}))

	gen, err := client.CreateGeneration(context.Background(), domain.GenerationParams{
		Text: "hello", VoiceID: "v1", FormantShift: 1.2,
	})
	if err != nil {
		t.Fatalf("create generation: %v", err)
	}
	if gen.ID != "g1" || gen.Status != domain.GenerationPending {
		t.Fatalf("unexpected generation: %+v", gen)
	}
}

func TestWaitForGeneration(t *testing.T) {
	polls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "processing"
		if polls >= 3 {
			status = "completed"
		}
		json.NewEncoder(w).Encode(generationJSON{ID: "g1", Status: status, DurationSeconds: 4.2})
	}))

	gen, err := client.WaitForGeneration(context.Background(), "g1")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if gen.Status != domain.GenerationCompleted || gen.DurationSeconds != 4.2 {
		t.Fatalf("unexpected generation: %+v", gen)
	}
	if polls < 3 {
		t.Fatalf("expected at least 3 polls, got %d", polls)
	}
}

func TestWaitForGenerationFailure(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generationJSON{ID: "g1", Status: "failed", Error: "voice not found"})
	}))

	_, err := client.WaitForGeneration(context.Background(), "g1")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGetStory(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stories/s1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(storyJSON{
			ID:    "s1",
			Title: "Bedtime",
			Items: []storyItemJSON{
				{ID: "c1", StartTimeMs: 0, DurationSeconds: 5},
				{ID: "c2", StartTimeMs: 5000, DurationSeconds: 3},
			},
		})
	}))

	story, err := client.GetStory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if story.Title != "Bedtime" || len(story.Items) != 2 {
		t.Fatalf("unexpected story: %+v", story)
	}
	if story.TotalDurationMs() != 8000 {
		t.Fatalf("expected total 8000ms, got %.0f", story.TotalDurationMs())
	}
}

func TestNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	if _, err := client.GetStory(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := client.Clip(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for clip, got %v", err)
	}
}

func TestBackendErrorBodySurfaced(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(errorJSON{Error: "reference audio too short"})
	}))

	_, err := client.ListVoices(context.Background())
	if err == nil || !strings.Contains(err.Error(), "reference audio too short") {
		t.Fatalf("expected backend message in error, got %v", err)
	}
}

func TestClipDownload(t *testing.T) {
	payload := []byte("RIFFfake-wav-bytes")
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clips/c1/audio" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write(payload)
	}))

	data, err := client.Clip(context.Background(), "c1")
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("unexpected clip bytes: %q", data)
	}
}
