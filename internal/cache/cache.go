// Package cache provides in-memory caching for fetched sources and rendered rule sets.
package cache

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SourceEntry is one cached upstream body
type SourceEntry struct {
	Body      string
	ETag      string
	Timestamp time.Time
}

// SourceCache holds fetched source bodies keyed by source identifier
type SourceCache struct {
	mu          sync.RWMutex
	entries     map[string]SourceEntry
	ttl         time.Duration
	persistPath string
}

// NewSourceCache creates a new SourceCache with the specified TTL
func NewSourceCache(ttl time.Duration) *SourceCache {
	return &SourceCache{
		entries: make(map[string]SourceEntry),
		ttl:     ttl,
	}
}

// SetPersistPath enables on-disk persistence for the source cache.
func (c *SourceCache) SetPersistPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistPath = path
}

// Get returns the cached entry for source if it has not expired
func (c *SourceCache) Get(source string) (SourceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[source]
	if !ok {
		return SourceEntry{}, false
	}
	if time.Since(entry.Timestamp) > c.ttl {
		return entry, false
	}
	return entry, true
}

// GetAny returns the cached entry for source regardless of TTL.
func (c *SourceCache) GetAny(source string) (SourceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[source]
	return entry, ok
}

// Set stores body and its ETag for source
func (c *SourceCache) Set(source, body, etag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[source] = SourceEntry{
		Body:      body,
		ETag:      etag,
		Timestamp: time.Now(),
	}
	if c.persistPath == "" {
		return nil
	}
	return c.persistToFileLocked()
}

// Touch renews the timestamp of a cached entry after upstream revalidation.
func (c *SourceCache) Touch(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[source]; ok {
		entry.Timestamp = time.Now()
		c.entries[source] = entry
	}
}

// GetETag returns the ETag cached for source
func (c *SourceCache) GetETag(source string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[source].ETag
}

// LoadFromFile restores cache data from disk if available.
func (c *SourceCache) LoadFromFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var persisted map[string]SourceEntry
	if err := gob.NewDecoder(file).Decode(&persisted); err != nil {
		return err
	}

	for source, entry := range persisted {
		c.entries[source] = entry
	}
	c.persistPath = path
	return nil
}

func (c *SourceCache) persistToFileLocked() error {
	if c.persistPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.persistPath), 0o755); err != nil {
		return err
	}

	tmpPath := c.persistPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(file).Encode(c.entries)
	closeErr := file.Close()
	if err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return err
	}
	if closeErr != nil {
		os.Remove(tmpPath) // cleanup on failure
		return closeErr
	}

	return os.Rename(tmpPath, c.persistPath)
}

// ResultCache caches rendered rule-set documents
type ResultCache struct {
	mu      sync.RWMutex
	results map[string]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	value     []byte
	timestamp time.Time
	etag      string
}

// NewResultCache creates a new ResultCache with the specified TTL
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		results: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached result if valid
func (c *ResultCache) Get(key, etag string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.results[key]
	if !ok {
		return nil, false
	}

	// Check if ETag matches and not expired
	if entry.etag != etag || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}

	return entry.value, true
}

// Set stores a result in the cache
func (c *ResultCache) Set(key string, value []byte, etag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[key] = &cacheEntry{
		value:     value,
		timestamp: time.Now(),
		etag:      etag,
	}
}

// Cleanup removes expired entries
func (c *ResultCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.results {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.results, key)
		}
	}
}

// Len returns the number of cached results
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
