package similarity

import (
	"context"
	"crypto/sha256"
	"sync"

	"resume-matcher/internal/llm"
)

const defaultCacheEntries = 256

// CachedEmbedder memoizes embeddings by content hash. When full, it drops an
// arbitrary entry; job descriptions are usually re-used across a session.
type CachedEmbedder struct {
	base       llm.Embedder
	maxEntries int

	mu      sync.RWMutex
	entries map[[sha256.Size]byte][]float32
}

// NewCachedEmbedder wraps base. maxEntries <= 0 uses a default of 256.
func NewCachedEmbedder(base llm.Embedder, maxEntries int) *CachedEmbedder {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &CachedEmbedder{
		base:       base,
		maxEntries: maxEntries,
		entries:    make(map[[sha256.Size]byte][]float32),
	}
}

// Embed implements llm.Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := sha256.Sum256([]byte(text))

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := c.base.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = vec
	return vec, nil
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
