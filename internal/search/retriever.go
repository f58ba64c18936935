// File path: internal/search/retriever.go
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

// Retriever embeds a query, over-fetches neighbors, and suppresses
// near-duplicate listings. It must share its embedder with the ingest
// path; a store populated under a different embedding function returns
// meaningless distances.
type Retriever struct {
	embedder embedding.Embedder
	store    vector.Store
	cfg      Config
}

func NewRetriever(embedder embedding.Embedder, store vector.Store, cfg Config) *Retriever {
	cfg.applyDefaults()
	return &Retriever{embedder: embedder, store: store, cfg: cfg}
}

// Retrieve returns up to k candidates sorted ascending by distance,
// with near-duplicates collapsed onto their lowest-distance
// representative. k <= 0 falls back to the configured TopK.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]vector.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("retrieve: empty query")
	}
	if k <= 0 {
		k = r.cfg.TopK
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}

	raw, err := r.store.Query(ctx, vec, k*r.cfg.OverFetch)
	if err != nil {
		return nil, fmt.Errorf("retrieve: vector query: %w", err)
	}

	deduped := dedupe(raw, r.cfg.DupThreshold)
	if len(deduped) < len(raw) {
		common.Logger().Debug("retriever: collapsed near-duplicates",
			"query", query, "fetched", len(raw), "kept", len(deduped))
	}
	if len(deduped) > k {
		deduped = deduped[:k]
	}
	return deduped, nil
}

// dedupe walks matches in ascending distance order and keeps a
// candidate only if it is not a near-duplicate of an already kept one.
// Two listings are near-duplicates when their normalized names are
// equal or their embeddings sit within dupThreshold cosine distance of
// each other. Keeping the first occurrence preserves the
// lower-distance representative.
func dedupe(matches []vector.Match, dupThreshold float64) []vector.Match {
	kept := make([]vector.Match, 0, len(matches))
	for _, candidate := range matches {
		name := normalizeName(candidate.Part.Name)
		duplicate := false
		for _, existing := range kept {
			if name != "" && name == normalizeName(existing.Part.Name) {
				duplicate = true
				break
			}
			if len(candidate.Vector) > 0 && len(existing.Vector) == len(candidate.Vector) {
				if dist, err := vector.CosineDistance(candidate.Vector, existing.Vector); err == nil && dist < dupThreshold {
					duplicate = true
					break
				}
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

var nameNormRe = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeName lowercases and strips whitespace and punctuation so
// that minor title variants of the same listing compare equal.
func normalizeName(name string) string {
	return strings.Trim(nameNormRe.ReplaceAllString(strings.ToLower(name), " "), " ")
}
