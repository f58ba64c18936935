// File path: internal/search/ranker_test.go
package search

import (
	"testing"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/pricing"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

func ratedMatch(id string, source catalog.Source, dist, price float64, rating *float64) vector.Match {
	part := seedPart(id, "Part "+id, source, price, "USD")
	part.Rating = rating
	return vector.Match{Part: part, Distance: dist}
}

func ratingPtr(v float64) *float64 { return &v }

func TestRankStrictTotalOrder(t *testing.T) {
	ranker := NewRanker(pricing.DefaultTable(), testConfig())
	// Identical distance, rating, and price: only (source, id) separates them.
	matches := []vector.Match{
		ratedMatch("B", catalog.SourceAmazon, 0.3, 25, ratingPtr(4)),
		ratedMatch("A", catalog.SourceAmazon, 0.3, 25, ratingPtr(4)),
		ratedMatch("A", catalog.SourceEbay, 0.3, 25, ratingPtr(4)),
	}
	ranked := ranker.Rank(matches)
	if ranked[0].Part.Key() != "amazon:A" || ranked[1].Part.Key() != "amazon:B" || ranked[2].Part.Key() != "ebay:A" {
		t.Fatalf("unexpected tie-break order: %s, %s, %s",
			ranked[0].Part.Key(), ranked[1].Part.Key(), ranked[2].Part.Key())
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Score < ranked[i].Score {
			t.Fatalf("scores not descending at index %d", i)
		}
	}
}

func TestRankPriceOutlierDemoted(t *testing.T) {
	ranker := NewRanker(pricing.DefaultTable(), testConfig())
	outlier := ratedMatch("X", catalog.SourceAmazon, 0.30, 2500, ratingPtr(4.5))
	matches := []vector.Match{
		outlier,
		ratedMatch("A", catalog.SourceAmazon, 0.31, 25, ratingPtr(4.5)),
		ratedMatch("B", catalog.SourceEbay, 0.32, 24, ratingPtr(4.5)),
		ratedMatch("C", catalog.SourceEbay, 0.33, 26, ratingPtr(4.5)),
	}
	ranked := ranker.Rank(matches)
	if ranked[len(ranked)-1].Part.ID != "X" {
		t.Fatalf("expected 100x price outlier last, got order ending in %s", ranked[len(ranked)-1].Part.ID)
	}
}

func TestRankMissingRatingNeutral(t *testing.T) {
	ranker := NewRanker(pricing.DefaultTable(), testConfig())
	matches := []vector.Match{
		ratedMatch("RATED", catalog.SourceAmazon, 0.3, 25, ratingPtr(4.0)),
		ratedMatch("UNRATED", catalog.SourceEbay, 0.3, 25, nil),
	}
	ranked := ranker.Rank(matches)
	// The unrated candidate inherits the set mean (4.0/5) and so ties
	// on score; it must not be demoted below a worse match.
	if ranked[0].Score != ranked[1].Score {
		t.Fatalf("expected neutral rating to produce equal scores, got %f vs %f",
			ranked[0].Score, ranked[1].Score)
	}
}

func TestRankMeanSubstitutionAveragesPresentRatings(t *testing.T) {
	ranker := NewRanker(pricing.DefaultTable(), testConfig())
	matches := []vector.Match{
		ratedMatch("LOW", catalog.SourceAmazon, 0.3, 25, ratingPtr(3.0)),
		ratedMatch("HIGH", catalog.SourceAmazon, 0.3, 25, ratingPtr(5.0)),
		ratedMatch("UNRATED", catalog.SourceEbay, 0.3, 25, nil),
	}
	ranked := ranker.Rank(matches)

	// sim 0.6*(1-0.3/2) + rating 0.25*((3/5+5/5)/2) + price 0.15*1
	want := 0.6*0.85 + 0.25*0.8 + 0.15
	var unrated *Ranked
	for i := range ranked {
		if ranked[i].Part.ID == "UNRATED" {
			unrated = &ranked[i]
		}
	}
	if unrated == nil {
		t.Fatalf("unrated candidate missing from output")
	}
	if diff := unrated.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected unrated score %f, got %f", want, unrated.Score)
	}
}

func TestRankConvertsCurrenciesBeforeComparing(t *testing.T) {
	ranker := NewRanker(pricing.DefaultTable(), testConfig())
	usd := seedPart("U", "Part U", catalog.SourceAmazon, 100, "USD")
	inr := seedPart("I", "Part I", catalog.SourceEbay, 8600, "INR")
	ranked := ranker.Rank([]vector.Match{
		{Part: usd, Distance: 0.3},
		{Part: inr, Distance: 0.3},
	})
	for _, r := range ranked {
		if r.BasePrice != 8600 {
			t.Fatalf("expected both prices as 8600 INR, got %f for %s", r.BasePrice, r.Part.ID)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	ranker := NewRanker(pricing.DefaultTable(), testConfig())
	if got := ranker.Rank(nil); len(got) != 0 {
		t.Fatalf("expected empty output for empty input")
	}
}
