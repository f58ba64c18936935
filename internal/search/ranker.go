// File path: internal/search/ranker.go
package search

import (
	"sort"

	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/pricing"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

// Ranked is a retrieval match annotated with its composite score and
// the price converted into the ranker's base currency.
type Ranked struct {
	vector.Match
	Score     float64 `json:"score"`
	BasePrice float64 `json:"base_price"`
}

// Ranker orders deduplicated candidates by a weighted blend of
// similarity, rating, and price sanity. All prices are compared in a
// single base currency so that cross-marketplace outlier detection is
// meaningful.
type Ranker struct {
	rates pricing.Table
	cfg   Config
}

func NewRanker(rates pricing.Table, cfg Config) *Ranker {
	cfg.applyDefaults()
	return &Ranker{rates: rates, cfg: cfg}
}

// Rank produces a strict total order: descending score, ties broken by
// (source, id) lexical order so no two candidates compare equal.
func (r *Ranker) Rank(matches []vector.Match) []Ranked {
	ranked := make([]Ranked, len(matches))
	for i, m := range matches {
		ranked[i] = Ranked{Match: m, BasePrice: r.basePrice(m)}
	}

	median := medianPrice(ranked)
	meanRating := meanNormalizedRating(matches)

	for i := range ranked {
		similarity := 1 - ranked[i].Distance/2
		if similarity < 0 {
			similarity = 0
		}

		// Missing ratings score the candidate-set mean instead of
		// zero, so sources without a rating field are not demoted.
		ratingScore := meanRating
		if ranked[i].Part.Rating != nil {
			ratingScore = *ranked[i].Part.Rating / 5
		}

		priceScore := 1.0
		if r.cfg.PriceOutlier > 0 && median > 0 && ranked[i].BasePrice > r.cfg.PriceOutlier*median {
			priceScore = 0
		}

		ranked[i].Score = r.cfg.WeightSimilarity*similarity +
			r.cfg.WeightRating*ratingScore +
			r.cfg.WeightPrice*priceScore
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Part.Source != ranked[j].Part.Source {
			return ranked[i].Part.Source < ranked[j].Part.Source
		}
		return ranked[i].Part.ID < ranked[j].Part.ID
	})
	return ranked
}

// basePrice converts a candidate's price into the base currency. A
// missing rate keeps the raw amount rather than failing the query.
func (r *Ranker) basePrice(m vector.Match) float64 {
	converted, err := r.rates.Convert(m.Part.PriceAmount, m.Part.PriceCurrency, r.cfg.BaseCurrency)
	if err != nil {
		common.Logger().Warn("ranker: price conversion failed, using raw amount",
			"part", m.Part.Key(), "currency", m.Part.PriceCurrency, "error", err)
		return m.Part.PriceAmount
	}
	return converted
}

func medianPrice(ranked []Ranked) float64 {
	prices := make([]float64, 0, len(ranked))
	for _, r := range ranked {
		if r.BasePrice > 0 {
			prices = append(prices, r.BasePrice)
		}
	}
	if len(prices) == 0 {
		return 0
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid]
	}
	return (prices[mid-1] + prices[mid]) / 2
}

// meanNormalizedRating is the neutral substitute for candidates
// without a rating. When nothing in the set carries a rating the
// component cancels out entirely at 0.5.
func meanNormalizedRating(matches []vector.Match) float64 {
	var sum float64
	var n int
	for _, m := range matches {
		if m.Part.Rating != nil {
			sum += *m.Part.Rating / 5
			n++
		}
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}
