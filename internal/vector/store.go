// File path: internal/vector/store.go
package vector

import (
	"context"
	"errors"
	"strings"

	"github.com/nicodishanthj/partfinder/internal/catalog"
)

// ErrUnavailable marks store operations that failed because the
// backing database could not be reached. Callers surface this as a
// "database unavailable" condition instead of fabricating partial
// results.
var ErrUnavailable = errors.New("vector store unavailable")

// Match is a nearest-neighbour result. Distance is cosine distance in
// [0, 2]; smaller means more similar. The stored vector is included so
// callers can recompute pairwise distances, e.g. for near-duplicate
// suppression.
type Match struct {
	Part     catalog.Part
	Distance float64
	Vector   []float32
}

// Filter is a conjunction over source, price range and a
// case-insensitive substring match on the name. Zero values mean "no
// constraint".
type Filter struct {
	Source       catalog.Source
	MinPrice     *float64
	MaxPrice     *float64
	NameContains string
}

// Match reports whether the part satisfies every set constraint.
func (f Filter) Match(p catalog.Part) bool {
	if f.Source != "" && p.Source != f.Source {
		return false
	}
	if f.MinPrice != nil && p.PriceAmount < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.PriceAmount > *f.MaxPrice {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// Stats summarizes the stored corpus for the inventory view.
type Stats struct {
	Total     int                    `json:"total"`
	PerSource map[catalog.Source]int `json:"per_source"`
	PriceMin  float64                `json:"price_min"`
	PriceMax  float64                `json:"price_max"`
	PriceAvg  float64                `json:"price_avg"`
}

// Store persists Part entities together with their embedding vectors.
// Upsert is idempotent and atomic per (id, source): a concurrent
// reader never observes a half-updated record. Query returns results
// in ascending cosine distance. The vector dimension is constant
// across the whole store.
type Store interface {
	Upsert(ctx context.Context, part catalog.Part, vec []float32) error
	Query(ctx context.Context, vec []float32, k int) ([]Match, error)
	Scan(ctx context.Context, filter Filter) ([]catalog.Part, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
}
