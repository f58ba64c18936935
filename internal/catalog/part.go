// File path: internal/catalog/part.go
package catalog

import (
	"fmt"
	"strings"
)

// Source identifies the marketplace a listing was ingested from. The
// source decides which optional Part fields are meaningful: Amazon
// listings carry a product rating, eBay listings carry seller details.
type Source string

const (
	SourceAmazon Source = "amazon"
	SourceEbay   Source = "ebay"
)

// ParseSource maps a free-form source label onto a known Source. The
// scrapers report site hostnames ("amazon.in", "ebay.com"), so matching
// is by substring.
func ParseSource(value string) (Source, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(normalized, "amazon"):
		return SourceAmazon, nil
	case strings.Contains(normalized, "ebay"):
		return SourceEbay, nil
	default:
		return "", fmt.Errorf("unknown source %q", value)
	}
}

// Part is the canonical, source-agnostic representation of a single
// marketplace listing. Parts are created by the Normalizer at ingest
// time and are immutable afterwards; re-ingesting the same (ID, Source)
// pair replaces the prior record.
type Part struct {
	ID            string  `json:"id" db:"part_id"`
	Name          string  `json:"name" db:"name"`
	PriceAmount   float64 `json:"price_amount" db:"price_amount"`
	PriceCurrency string  `json:"price_currency" db:"price_currency"`
	Source        Source  `json:"source" db:"source"`
	URL           string  `json:"url" db:"url"`

	Rating       *float64 `json:"rating,omitempty" db:"rating"`
	ReviewCount  int      `json:"review_count,omitempty" db:"review_count"`
	Prime        bool     `json:"prime,omitempty" db:"prime"`
	Seller       string   `json:"seller,omitempty" db:"seller"`
	SellerRating string   `json:"seller_rating,omitempty" db:"seller_rating"`
	Availability string   `json:"availability,omitempty" db:"availability"`
	Brand        string   `json:"brand,omitempty" db:"brand"`
	Category     string   `json:"category,omitempty" db:"category"`
	ImageURL     string   `json:"image_url,omitempty" db:"image_url"`

	// EmbeddingText is the derived string the embedding vector is
	// computed from. It is regenerated whenever Name changes.
	EmbeddingText string `json:"embedding_text" db:"embedding_text"`
}

// Key returns the corpus-wide unique identifier for the part. ID alone
// is only unique within a source.
func (p Part) Key() string {
	return string(p.Source) + ":" + p.ID
}

// BuildEmbeddingText concatenates the name with the structured
// attributes in a fixed order so that identical listings always produce
// identical embedding input.
func BuildEmbeddingText(name, brand, category string) string {
	fields := make([]string, 0, 3)
	for _, f := range []string{name, brand, category} {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return strings.Join(fields, " ")
}
