// File path: internal/catalog/normalizer.go
package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RawRecord is the field mapping a source connector extracts from one
// listing. Unknown and missing optional fields are tolerated; only name
// and price are mandatory.
type RawRecord map[string]string

// ErrValidation marks records the Normalizer refused. Batch ingestion
// skips such records instead of aborting.
var ErrValidation = errors.New("invalid record")

// ValidationError describes why a raw record could not be normalized.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: field %q %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Normalize converts a raw source record into a canonical Part. It is
// deterministic: the same record always yields the same Part and the
// same embedding text. The caller is responsible for persistence.
func Normalize(raw RawRecord, source Source) (Part, error) {
	name := firstField(raw, "name", "title")
	if name == "" {
		return Part{}, &ValidationError{Field: "name", Reason: "is missing"}
	}

	priceRaw := firstField(raw, "price", "price_amount")
	if priceRaw == "" {
		return Part{}, &ValidationError{Field: "price", Reason: "is missing"}
	}
	amount, currency, err := ParsePrice(priceRaw)
	if err != nil {
		return Part{}, &ValidationError{Field: "price", Reason: fmt.Sprintf("is unparseable: %v", err)}
	}
	if currency == "" {
		if explicit := strings.ToUpper(strings.TrimSpace(raw["currency"])); explicit != "" {
			currency = explicit
		} else {
			currency = defaultCurrency(source)
		}
	}

	url := strings.TrimSpace(raw["url"])
	id := nativeID(raw, source)
	if id == "" {
		if url == "" {
			return Part{}, &ValidationError{Field: "id", Reason: "is missing and no url to derive one from"}
		}
		id = hashID(url)
	}

	part := Part{
		ID:            id,
		Name:          name,
		PriceAmount:   amount,
		PriceCurrency: currency,
		Source:        source,
		URL:           url,
		Seller:        strings.TrimSpace(raw["seller"]),
		SellerRating:  strings.TrimSpace(raw["seller_rating"]),
		Availability:  strings.TrimSpace(raw["availability"]),
		Brand:         strings.TrimSpace(raw["brand"]),
		Category:      strings.TrimSpace(raw["category"]),
		ImageURL:      strings.TrimSpace(raw["image_url"]),
	}
	if rating, ok := parseRating(raw["rating"]); ok {
		part.Rating = &rating
	}
	if count := strings.TrimSpace(strings.ReplaceAll(raw["review_count"], ",", "")); count != "" {
		if parsed, err := strconv.Atoi(count); err == nil && parsed >= 0 {
			part.ReviewCount = parsed
		}
	}
	if prime := strings.ToLower(strings.TrimSpace(raw["prime"])); prime == "true" || prime == "yes" || prime == "1" {
		part.Prime = true
	}
	part.EmbeddingText = BuildEmbeddingText(part.Name, part.Brand, part.Category)
	return part, nil
}

func firstField(raw RawRecord, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(raw[key]); value != "" {
			return value
		}
	}
	return ""
}

func nativeID(raw RawRecord, source Source) string {
	switch source {
	case SourceAmazon:
		if asin := strings.TrimSpace(raw["asin"]); asin != "" {
			return asin
		}
	case SourceEbay:
		if itemID := strings.TrimSpace(raw["item_id"]); itemID != "" {
			return itemID
		}
	}
	return strings.TrimSpace(raw["id"])
}

func defaultCurrency(source Source) string {
	// The Amazon connector scrapes amazon.in; its bare prices are
	// rupees. Everything else defaults to dollars.
	if source == SourceAmazon {
		return "INR"
	}
	return "USD"
}

func hashID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:8])
}

var currencySymbols = map[rune]string{
	'₹': "INR",
	'$': "USD",
	'€': "EUR",
	'£': "GBP",
}

// ParsePrice extracts a non-negative amount and, when present, a
// currency from scraped price text such as "₹1,299.00", "$19.50 USD"
// or "19.5". An empty currency means the source default applies.
func ParsePrice(text string) (float64, string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, "", errors.New("empty price")
	}
	currency := ""
	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9', r == '.':
			digits.WriteRune(r)
		case r == ',':
			// thousands separator
		default:
			if code, ok := currencySymbols[r]; ok && currency == "" {
				currency = code
			}
		}
	}
	if currency == "" {
		upper := strings.ToUpper(trimmed)
		for _, code := range []string{"INR", "USD", "EUR", "GBP"} {
			if strings.Contains(upper, code) {
				currency = code
				break
			}
		}
	}
	if digits.Len() == 0 {
		return 0, "", fmt.Errorf("no numeric value in %q", text)
	}
	amount, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse %q: %w", text, err)
	}
	if amount < 0 {
		return 0, "", fmt.Errorf("negative amount in %q", text)
	}
	return amount, currency, nil
}

func parseRating(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	// Amazon reports "4.3 out of 5 stars"; keep the leading number.
	if idx := strings.IndexByte(trimmed, ' '); idx > 0 {
		trimmed = trimmed[:idx]
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value < 0 || value > 5 {
		return 0, false
	}
	return value, true
}
