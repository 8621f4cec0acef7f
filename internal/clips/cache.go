// Package clips provides cached access to generated clip audio.
package clips

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Cache is a thread-safe two-tier cache (in-memory + filesystem) for
// encoded clip audio, keyed by clip id. Clip ids are immutable backend
// identifiers, so entries never need invalidation.
//
// Disk behaviour is controlled by diskWrite:
//
//	diskWrite=true  -> reads from mem, then disk; writes to both.
//	diskWrite=false -> reads from mem, then disk; writes to mem only.
//
// The on-disk cache is always consulted, even when writes are disabled,
// so previous runs give a warm start.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string][]byte // clip id -> encoded audio
	log       *logrus.Logger
	cacheDir  string // filesystem cache directory (empty = no disk layer)
	diskWrite bool
	hits      int64
	misses    int64
}

// NewCache creates a clip audio cache. If cacheDir is empty the disk
// layer is disabled entirely (pure in-memory).
func NewCache(cacheDir string, diskWrite bool, log *logrus.Logger) *Cache {
	c := &Cache{
		entries:   make(map[string][]byte),
		log:       log,
		cacheDir:  cacheDir,
		diskWrite: diskWrite,
	}

	if cacheDir != "" && diskWrite {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Errorf("clips: failed to create cache dir %s: %v", cacheDir, err)
		}
	}

	return c
}

// Get returns cached audio for the clip and true, or nil and false. The
// in-memory map is checked first, then the disk cache.
func (c *Cache) Get(clipID string) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.entries[clipID]
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return data, true
	}

	if c.cacheDir != "" {
		if diskData, diskOK := c.readDisk(clipID); diskOK {
			// Promote to memory for faster subsequent hits.
			c.mu.Lock()
			c.entries[clipID] = diskData
			c.hits++
			c.mu.Unlock()
			c.log.Debugf("clips: cache hit (disk) for %s (%d bytes)", clipID, len(diskData))
			return diskData, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores audio for a clip. Always writes to memory; writes to disk
// only when diskWrite is enabled.
func (c *Cache) Put(clipID string, audio []byte) {
	c.mu.Lock()
	c.entries[clipID] = audio
	c.mu.Unlock()

	if c.cacheDir != "" && c.diskWrite {
		c.writeDisk(clipID, audio)
	}
}

// Has returns true if audio for the clip is cached (memory or disk).
func (c *Cache) Has(clipID string) bool {
	c.mu.RLock()
	_, ok := c.entries[clipID]
	c.mu.RUnlock()
	if ok {
		return true
	}
	if c.cacheDir != "" {
		_, err := os.Stat(c.diskPath(clipID))
		return err == nil
	}
	return false
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear empties the in-memory cache. The disk cache is NOT cleared.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}

// diskPath hashes the clip id so cache filenames are always safe,
// whatever characters the backend puts in its ids.
func (c *Cache) diskPath(clipID string) string {
	h := sha256.Sum256([]byte(clipID))
	return filepath.Join(c.cacheDir, hex.EncodeToString(h[:])+".clip")
}

func (c *Cache) readDisk(clipID string) ([]byte, bool) {
	data, err := os.ReadFile(c.diskPath(clipID))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) writeDisk(clipID string, audio []byte) {
	path := c.diskPath(clipID)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		c.log.Errorf("clips: disk write failed for %s: %v", path, err)
	}
}
