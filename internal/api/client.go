// Package api is the REST client for the voxtale backend: voice profile
// management, generation jobs, story CRUD, and clip audio download.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
)

// Option configures the client.
type Option func(*Client)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPollInterval sets how often WaitForGeneration polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// Client talks to the voxtale backend over HTTP.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	log          *logrus.Logger
}

// NewClient creates a backend client. apiKey may be empty for backends
// that don't require one.
func NewClient(baseURL, apiKey string, log *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: time.Second,
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── voices ───────────────────────────────────────────────────────

// ListVoices returns all voice profiles.
func (c *Client) ListVoices(ctx context.Context) ([]domain.VoiceProfile, error) {
	var raw []voiceJSON
	if err := c.getJSON(ctx, "/api/voices", &raw); err != nil {
		return nil, err
	}
	out := make([]domain.VoiceProfile, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.toDomain())
	}
	return out, nil
}

// CreateVoice registers a voice profile from reference audio (WAV bytes).
// Callers should validate the reference locally first (see internal/record)
// — the backend applies the same constraints and rejects bad uploads.
func (c *Client) CreateVoice(ctx context.Context, name, description, language string, referenceWAV []byte) (domain.VoiceProfile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for field, value := range map[string]string{
		"name":        name,
		"description": description,
		"language":    language,
	} {
		if value == "" {
			continue
		}
		if err := mw.WriteField(field, value); err != nil {
			return domain.VoiceProfile{}, fmt.Errorf("building upload: %w", err)
		}
	}

	fw, err := mw.CreateFormFile("reference_audio", "reference.wav")
	if err != nil {
		return domain.VoiceProfile{}, fmt.Errorf("building upload: %w", err)
	}
	if _, err := fw.Write(referenceWAV); err != nil {
		return domain.VoiceProfile{}, fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.VoiceProfile{}, fmt.Errorf("building upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/voices", &body)
	if err != nil {
		return domain.VoiceProfile{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var raw voiceJSON
	if err := c.do(req, &raw); err != nil {
		return domain.VoiceProfile{}, err
	}
	c.log.Debugf("api: created voice %s (%s)", raw.ID, name)
	return raw.toDomain(), nil
}

// DeleteVoice removes a voice profile.
func (c *Client) DeleteVoice(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/voices/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ── generations ──────────────────────────────────────────────────

// CreateGeneration submits a TTS generation job.
func (c *Client) CreateGeneration(ctx context.Context, params domain.GenerationParams) (domain.Generation, error) {
	if err := params.Validate(); err != nil {
		return domain.Generation{}, fmt.Errorf("invalid generation params: %w", err)
	}

	payload := generationRequestJSON{
		Text:           params.Text,
		VoiceID:        params.VoiceID,
		PitchSemitones: params.PitchSemitones,
		FormantShift:   params.FormantShift,
		BlendVoiceID:   params.BlendVoiceID,
		BlendWeight:    params.BlendWeight,
	}

	var raw generationJSON
	if err := c.postJSON(ctx, "/api/generations", payload, &raw); err != nil {
		return domain.Generation{}, err
	}
	c.log.Debugf("api: submitted generation %s (%d chars, voice=%s)", raw.ID, len(params.Text), params.VoiceID)
	return raw.toDomain(), nil
}

// GetGeneration fetches a generation job's current state.
func (c *Client) GetGeneration(ctx context.Context, id string) (domain.Generation, error) {
	var raw generationJSON
	if err := c.getJSON(ctx, "/api/generations/"+id, &raw); err != nil {
		return domain.Generation{}, err
	}
	return raw.toDomain(), nil
}

// WaitForGeneration polls until the job reaches a terminal status or ctx
// is cancelled. A failed job returns ErrGenerationFailed with the
// backend's message attached.
func (c *Client) WaitForGeneration(ctx context.Context, id string) (domain.Generation, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		gen, err := c.GetGeneration(ctx, id)
		if err != nil {
			return domain.Generation{}, err
		}
		if gen.Done() {
			if gen.Status == domain.GenerationFailed {
				return gen, fmt.Errorf("%w: %s", domain.ErrGenerationFailed, gen.Error)
			}
			return gen, nil
		}

		select {
		case <-ctx.Done():
			return domain.Generation{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ── stories ──────────────────────────────────────────────────────

// ListStories returns all stories.
func (c *Client) ListStories(ctx context.Context) ([]*domain.Story, error) {
	var raw []storyJSON
	if err := c.getJSON(ctx, "/api/stories", &raw); err != nil {
		return nil, err
	}
	out := make([]*domain.Story, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.toDomain())
	}
	return out, nil
}

// GetStory fetches one story with its timeline items.
func (c *Client) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	var raw storyJSON
	if err := c.getJSON(ctx, "/api/stories/"+id, &raw); err != nil {
		return nil, err
	}
	return raw.toDomain(), nil
}

// CreateStory uploads a locally assembled story.
func (c *Client) CreateStory(ctx context.Context, story *domain.Story) (*domain.Story, error) {
	var raw storyJSON
	if err := c.postJSON(ctx, "/api/stories", storyToJSON(story), &raw); err != nil {
		return nil, err
	}
	return raw.toDomain(), nil
}

// UpdateStory replaces a story's title and item set.
func (c *Client) UpdateStory(ctx context.Context, story *domain.Story) (*domain.Story, error) {
	body, err := json.Marshal(storyToJSON(story))
	if err != nil {
		return nil, fmt.Errorf("encoding story: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/api/stories/"+story.ID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var raw storyJSON
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	return raw.toDomain(), nil
}

// DeleteStory removes a story.
func (c *Client) DeleteStory(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/stories/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ── clip audio ───────────────────────────────────────────────────

// Clip downloads the encoded audio for a clip. Satisfies domain.ClipSource
// so the client can feed the audio device directly (usually it sits behind
// the clips.Library cache instead).
func (c *Client) Clip(ctx context.Context, clipID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/clips/"+clipID+"/audio", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClipUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: clip %s", domain.ErrNotFound, clipID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrClipUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClipUnavailable, err)
	}
	c.log.Debugf("api: downloaded clip %s (%d bytes)", clipID, len(data))
	return data, nil
}

// ── plumbing ─────────────────────────────────────────────────────

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", "voxtale/1.0")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and decodes the JSON response into out (which
// may be nil for responses without a useful body).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorJSON
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend error %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("backend error %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
