// File path: internal/inventory/inventory.go
package inventory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

const DefaultPageSize = 20

// SortKey names a sortable part attribute.
type SortKey string

const (
	SortName   SortKey = "name"
	SortPrice  SortKey = "price"
	SortSource SortKey = "source"
	SortRating SortKey = "rating"
)

// ParseSortKey validates a user-supplied sort key; empty means name.
func ParseSortKey(value string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortName:
		return SortName, nil
	case SortPrice:
		return SortPrice, nil
	case SortSource:
		return SortSource, nil
	case SortRating:
		return SortRating, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", value)
	}
}

// Page is one window of the filtered, sorted corpus.
type Page struct {
	Items     []catalog.Part `json:"items"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageCount int            `json:"page_count"`
	PageSize  int            `json:"page_size"`
}

// Service exposes browse operations over the full stored corpus. It
// reads the store directly and shares nothing with the query pipeline.
type Service struct {
	store    vector.Store
	pageSize int
}

func New(store vector.Store, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{store: store, pageSize: pageSize}
}

// List returns one page of the corpus after filtering and sorting.
// Pages are 1-based; a page beyond the end returns an empty item set
// with the correct totals.
func (s *Service) List(ctx context.Context, filter vector.Filter, sortKey SortKey, desc bool, page int) (Page, error) {
	parts, err := s.store.Scan(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("inventory list: %w", err)
	}
	sortParts(parts, sortKey, desc)

	if page < 1 {
		page = 1
	}
	total := len(parts)
	pageCount := (total + s.pageSize - 1) / s.pageSize
	start := (page - 1) * s.pageSize
	if start > total {
		start = total
	}
	end := start + s.pageSize
	if end > total {
		end = total
	}
	return Page{
		Items:     parts[start:end],
		Total:     total,
		Page:      page,
		PageCount: pageCount,
		PageSize:  s.pageSize,
	}, nil
}

// Stats reports corpus-wide aggregates plus the count matching the
// given filter.
func (s *Service) Stats(ctx context.Context, filter vector.Filter) (vector.Stats, int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return vector.Stats{}, 0, fmt.Errorf("inventory stats: %w", err)
	}
	filtered, err := s.store.Scan(ctx, filter)
	if err != nil {
		return vector.Stats{}, 0, fmt.Errorf("inventory stats: %w", err)
	}
	return stats, len(filtered), nil
}

var csvHeader = []string{
	"ID", "Name", "Price", "Currency", "Source", "URL",
	"Rating", "Seller", "Seller Rating", "Availability",
}

// ExportCSV streams the filtered corpus as CSV, sorted by name for a
// stable export order.
func (s *Service) ExportCSV(ctx context.Context, filter vector.Filter, w io.Writer) error {
	parts, err := s.store.Scan(ctx, filter)
	if err != nil {
		return fmt.Errorf("inventory export: %w", err)
	}
	sortParts(parts, SortName, false)

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("inventory export: %w", err)
	}
	for _, p := range parts {
		rating := ""
		if p.Rating != nil {
			rating = strconv.FormatFloat(*p.Rating, 'f', 1, 64)
		}
		record := []string{
			p.ID,
			p.Name,
			strconv.FormatFloat(p.PriceAmount, 'f', 2, 64),
			p.PriceCurrency,
			string(p.Source),
			p.URL,
			rating,
			p.Seller,
			p.SellerRating,
			p.Availability,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("inventory export: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func sortParts(parts []catalog.Part, key SortKey, desc bool) {
	less := func(i, j int) bool { return parts[i].Name < parts[j].Name }
	switch key {
	case SortPrice:
		less = func(i, j int) bool { return parts[i].PriceAmount < parts[j].PriceAmount }
	case SortSource:
		less = func(i, j int) bool {
			if parts[i].Source != parts[j].Source {
				return parts[i].Source < parts[j].Source
			}
			return parts[i].Name < parts[j].Name
		}
	case SortRating:
		less = func(i, j int) bool {
			// Unrated parts sort below rated ones in either direction.
			ri, rj := -1.0, -1.0
			if parts[i].Rating != nil {
				ri = *parts[i].Rating
			}
			if parts[j].Rating != nil {
				rj = *parts[j].Rating
			}
			return ri < rj
		}
	}
	if desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(parts, less)
}
