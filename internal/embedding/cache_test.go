// File path: internal/embedding/cache_test.go
package embedding

import (
	"context"
	"sync/atomic"
	"testing"
)

type countingEmbedder struct {
	inner Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *countingEmbedder) Name() string { return c.inner.Name() }

func TestCachedEmbedderHitsCache(t *testing.T) {
	counting := &countingEmbedder{inner: NewLocalEmbedder(32)}
	cached := NewCachedEmbedder(counting, 16)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "trailer leaf spring")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := cached.Embed(ctx, "trailer leaf spring")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if counting.calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", counting.calls.Load())
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at index %d", i)
		}
	}
}

func TestCachedEmbedderEvictsOldest(t *testing.T) {
	counting := &countingEmbedder{inner: NewLocalEmbedder(32)}
	cached := NewCachedEmbedder(counting, 2)
	ctx := context.Background()

	cached.Embed(ctx, "alpha")
	cached.Embed(ctx, "beta")
	cached.Embed(ctx, "gamma")
	if cached.Len() != 2 {
		t.Fatalf("expected cache size 2, got %d", cached.Len())
	}

	// alpha was evicted, so embedding it again hits the upstream.
	before := counting.calls.Load()
	cached.Embed(ctx, "alpha")
	if counting.calls.Load() != before+1 {
		t.Fatalf("expected eviction of oldest entry")
	}

	// gamma is still resident.
	before = counting.calls.Load()
	cached.Embed(ctx, "gamma")
	if counting.calls.Load() != before {
		t.Fatalf("expected gamma to remain cached")
	}
}
