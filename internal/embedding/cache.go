package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dirigent/internal/logging"
)

// Cache memoizes embeddings by exact input text. Entries are write-once:
// a stored vector is never replaced, so concurrent callers computing the
// same key redundantly is only wasted work, never a correctness problem.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]float32)}
}

// Get returns the cached vector for text, if any.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[text]
	return v, ok
}

// Put stores a vector under text. The first write wins; later writes
// for the same text are ignored.
func (c *Cache) Put(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[text]; exists {
		return
	}
	c.entries[text] = vec
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache to path as JSON.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal embedding cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write embedding cache: %w", err)
	}
	logging.EmbeddingDebug("Saved %d cached embeddings to %s", c.Len(), path)
	return nil
}

// Load merges entries from path into the cache. A missing file is not
// an error; existing in-memory entries are kept.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read embedding cache: %w", err)
	}

	var loaded map[string][]float32
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse embedding cache: %w", err)
	}

	for text, vec := range loaded {
		c.Put(text, vec)
	}
	logging.EmbeddingDebug("Loaded %d cached embeddings from %s", len(loaded), path)
	return nil
}

// CachedEngine wraps an engine with the memoization cache.
type CachedEngine struct {
	inner Engine
	cache *Cache
}

// NewCachedEngine wraps engine with cache. A nil cache gets a fresh one.
func NewCachedEngine(engine Engine, cache *Cache) *CachedEngine {
	if cache == nil {
		cache = NewCache()
	}
	return &CachedEngine{inner: engine, cache: cache}
}

// Cache exposes the underlying cache for persistence.
func (e *CachedEngine) Cache() *Cache {
	return e.cache
}

// Embed returns the cached vector for text, computing and storing it on
// a miss.
func (e *CachedEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}
	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Put(text, v)
	return v, nil
}

// EmbedBatch embeds each text through the cache.
func (e *CachedEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the inner engine's dimensionality.
func (e *CachedEngine) Dimensions() int {
	return e.inner.Dimensions()
}

// Name returns the inner engine's name.
func (e *CachedEngine) Name() string {
	return e.inner.Name()
}
