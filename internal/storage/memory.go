// Package storage provides local story persistence implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
)

// Compile-time interface check.
var _ domain.StoryStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory story store, used for local drafts that
// haven't been pushed to the backend yet. Safe for concurrent access.
type MemoryStore struct {
	mu      sync.RWMutex
	stories map[string]*domain.Story
	log     *logrus.Logger
}

// NewMemoryStore creates an empty in-memory story store.
func NewMemoryStore(log *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		stories: make(map[string]*domain.Story),
		log:     log,
	}
}

// Save persists a story. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, story *domain.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debugf("storage: saving story %s (%q, %d items)", story.ID, story.Title, len(story.Items))
	s.stories[story.ID] = story
	return nil
}

// Load retrieves a story by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story, ok := s.stories[id]
	if !ok {
		s.log.Debugf("storage: story not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return story, nil
}

// Delete removes a story by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.stories, id)
	s.log.Debugf("storage: deleted story %s", id)
	return nil
}

// List returns all stored stories, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Story, 0, len(s.stories))
	for _, story := range s.stories {
		out = append(out, story)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	s.log.Debugf("storage: listing stories, count=%d", len(out))
	return out, nil
}
