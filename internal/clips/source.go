package clips

import (
	"context"

	"github.com/sirupsen/logrus"

	"voxtale/internal/domain"
)

// Compile-time interface check.
var _ domain.ClipSource = (*Library)(nil)

// Library resolves clip audio through the cache, falling back to the
// backend. It is the ClipSource the audio device is wired to.
type Library struct {
	backend domain.ClipSource // usually *api.Client
	cache   *Cache
	log     *logrus.Logger
}

// NewLibrary creates a cached clip source in front of backend.
func NewLibrary(backend domain.ClipSource, cache *Cache, log *logrus.Logger) *Library {
	return &Library{
		backend: backend,
		cache:   cache,
		log:     log,
	}
}

// Clip returns the encoded audio for a clip, fetching and caching it on
// first use.
func (l *Library) Clip(ctx context.Context, clipID string) ([]byte, error) {
	if data, ok := l.cache.Get(clipID); ok {
		return data, nil
	}

	data, err := l.backend.Clip(ctx, clipID)
	if err != nil {
		return nil, err
	}
	l.cache.Put(clipID, data)
	return data, nil
}

// Prefetch warms the cache for the given clips in background goroutines.
// Non-blocking; failures are logged and retried on actual use.
func (l *Library) Prefetch(ctx context.Context, clipIDs ...string) {
	for _, id := range clipIDs {
		if id == "" || l.cache.Has(id) {
			continue
		}
		go func(clipID string) {
			if _, err := l.Clip(ctx, clipID); err != nil {
				l.log.Debugf("clips: prefetch of %s failed: %v", clipID, err)
			}
		}(id)
	}
}
