// File path: internal/search/service_test.go
package search

import (
	"context"
	"errors"
	"testing"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/llm"
	"github.com/nicodishanthj/partfinder/internal/pricing"
	"github.com/nicodishanthj/partfinder/internal/vector/memstore"
)

func TestSearchEndToEndWithFallback(t *testing.T) {
	emb := embedding.NewLocalEmbedder(0)
	store := seedStore(t, emb,
		seedPart("A1", "Trailer Brake Shoe Set", catalog.SourceAmazon, 20.00, "USD"),
		seedPart("B1", "Trailer Brake Shoe Set", catalog.SourceEbay, 19.50, "USD"),
		seedPart("A2", "Trailer Jack", catalog.SourceAmazon, 35.00, "USD"),
	)

	svc := NewService(emb, store, llm.NewLocalProvider(), pricing.DefaultTable(), testConfig())
	got, err := svc.Search(context.Background(), "brake shoe kit", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// The local provider never emits a parseable CHOICE line, so the
	// pipeline must land on the deterministic fallback.
	if !got.Fallback {
		t.Fatalf("expected fallback with local provider")
	}
	if got.Rationale != fallbackRationale {
		t.Fatalf("unexpected rationale %q", got.Rationale)
	}
	if normalizeName(got.Recommended.Name) != "trailer brake shoe set" {
		t.Fatalf("expected a brake shoe recommended, got %q", got.Recommended.Name)
	}
	for _, alt := range got.Alternatives {
		if normalizeName(alt.Name) == normalizeName(got.Recommended.Name) {
			t.Fatalf("duplicate of the recommendation leaked into alternatives")
		}
	}
	if got.DisplayPrice == "" {
		t.Fatalf("expected a formatted display price")
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	emb := embedding.NewLocalEmbedder(0)
	svc := NewService(emb, memstore.New(), llm.NewLocalProvider(), pricing.DefaultTable(), testConfig())
	_, err := svc.Search(context.Background(), "brake shoe", 5)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestSearchEmbeddingDownPropagates(t *testing.T) {
	svc := NewService(failingEmbedder{}, memstore.New(), llm.NewLocalProvider(), pricing.DefaultTable(), testConfig())
	_, err := svc.Search(context.Background(), "brake shoe", 5)
	if !errors.Is(err, embedding.ErrUnavailable) {
		t.Fatalf("expected embedding.ErrUnavailable, got %v", err)
	}
}
