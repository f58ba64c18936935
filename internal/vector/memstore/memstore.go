// File path: internal/vector/memstore/memstore.go
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

type record struct {
	part catalog.Part
	vec  []float32
}

// Store is an in-memory vector.Store. It backs tests and acts as a
// reference implementation of the store semantics; durable deployments
// use the sqlite or chroma backends.
type Store struct {
	mu   sync.RWMutex
	dim  int
	keys []string
	data map[string]record
}

func New() *Store {
	return &Store{data: make(map[string]record)}
}

func (s *Store) Upsert(ctx context.Context, part catalog.Part, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for %s", part.Key())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		s.dim = len(vec)
	} else if len(vec) != s.dim {
		return fmt.Errorf("vector dimension %d does not match store dimension %d", len(vec), s.dim)
	}
	key := part.Key()
	if _, exists := s.data[key]; !exists {
		s.keys = append(s.keys, key)
		sort.Strings(s.keys)
	}
	copied := make([]float32, len(vec))
	copy(copied, vec)
	s.data[key] = record{part: part, vec: copied}
	return nil
}

func (s *Store) Query(ctx context.Context, vec []float32, k int) ([]vector.Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]vector.Match, 0, len(s.data))
	for _, key := range s.keys {
		rec := s.data[key]
		dist, err := vector.CosineDistance(vec, rec.vec)
		if err != nil {
			return nil, err
		}
		matches = append(matches, vector.Match{Part: rec.part, Distance: dist, Vector: rec.vec})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *Store) Scan(ctx context.Context, filter vector.Filter) ([]catalog.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var parts []catalog.Part
	for _, key := range s.keys {
		if part := s.data[key].part; filter.Match(part) {
			parts = append(parts, part)
		}
	}
	return parts, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func (s *Store) Stats(ctx context.Context) (vector.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := vector.Stats{PerSource: make(map[catalog.Source]int)}
	var sum float64
	for _, key := range s.keys {
		part := s.data[key].part
		stats.Total++
		stats.PerSource[part.Source]++
		if stats.Total == 1 || part.PriceAmount < stats.PriceMin {
			stats.PriceMin = part.PriceAmount
		}
		if part.PriceAmount > stats.PriceMax {
			stats.PriceMax = part.PriceAmount
		}
		sum += part.PriceAmount
	}
	if stats.Total > 0 {
		stats.PriceAvg = sum / float64(stats.Total)
	}
	return stats, nil
}

var _ vector.Store = (*Store)(nil)
