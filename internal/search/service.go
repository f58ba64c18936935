// File path: internal/search/service.go
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/llm"
	"github.com/nicodishanthj/partfinder/internal/pricing"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

// ErrNoCandidates reports a query against an empty corpus or one with
// no retrievable neighbors.
var ErrNoCandidates = errors.New("no candidates found")

// QueryResult is the full answer for one search: the recommended part,
// why it was chosen, and the remaining candidates in ranked order. It
// is ephemeral; nothing about a query is persisted.
type QueryResult struct {
	Query        string         `json:"query"`
	Recommended  catalog.Part   `json:"recommended"`
	Rationale    string         `json:"rationale"`
	Alternatives []catalog.Part `json:"alternatives"`
	Fallback     bool           `json:"fallback"`
	DisplayPrice string         `json:"display_price"`
}

// Service ties the query pipeline together: retrieve, rank, select.
type Service struct {
	retriever *Retriever
	ranker    *Ranker
	selector  *Selector
	cfg       Config
}

func NewService(embedder embedding.Embedder, store vector.Store, provider llm.Provider, rates pricing.Table, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		retriever: NewRetriever(embedder, store, cfg),
		ranker:    NewRanker(rates, cfg),
		selector:  NewSelector(provider, cfg),
		cfg:       cfg,
	}
}

// Search runs one query end to end. k <= 0 uses the configured TopK.
func (s *Service) Search(ctx context.Context, query string, k int) (QueryResult, error) {
	candidates, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return QueryResult{}, fmt.Errorf("search: %w", err)
	}
	if len(candidates) == 0 {
		return QueryResult{}, ErrNoCandidates
	}

	ranked := s.ranker.Rank(candidates)
	selection, err := s.selector.Select(ctx, query, ranked)
	if err != nil {
		return QueryResult{}, fmt.Errorf("search: %w", err)
	}

	common.Logger().Info("search: query answered",
		"query", query,
		"candidates", len(ranked),
		"recommended", selection.Recommended.Part.Key(),
		"fallback", selection.Fallback)

	return QueryResult{
		Query:        query,
		Recommended:  selection.Recommended.Part,
		Rationale:    selection.Rationale,
		Alternatives: partOf(selection.Alternatives),
		Fallback:     selection.Fallback,
		DisplayPrice: pricing.Format(selection.Recommended.BasePrice, s.cfg.BaseCurrency),
	}, nil
}
