// File path: internal/embedding/cache.go
package embedding

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/nicodishanthj/partfinder/internal/common/telemetry"
)

const defaultCacheSize = 2048

// CachedEmbedder wraps an Embedder with a content-addressed LRU cache.
// Keys are the SHA-256 of the input text, so identical embedding texts
// hit the cache regardless of which part or query produced them.
type CachedEmbedder struct {
	inner Embedder
	size  int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key string
	vec []float32
}

func NewCachedEmbedder(inner Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &CachedEmbedder{
		inner:   inner,
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		vec := elem.Value.(*cacheEntry).vec
		c.mu.Unlock()
		telemetry.RecordEmbedding(true, 0)
		return vec, nil
	}
	c.mu.Unlock()

	start := time.Now()
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	telemetry.RecordEmbedding(false, time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).vec, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, vec: vec})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return vec, nil
}

func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *CachedEmbedder) Name() string { return c.inner.Name() }

// Len reports the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
