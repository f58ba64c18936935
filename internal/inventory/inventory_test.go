// File path: internal/inventory/inventory_test.go
package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/vector"
	"github.com/nicodishanthj/partfinder/internal/vector/memstore"
)

func seedInventory(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	rating := func(v float64) *float64 { return &v }
	parts := []catalog.Part{
		{ID: "A1", Name: "Brake Shoe Set", PriceAmount: 20, PriceCurrency: "USD", Source: catalog.SourceAmazon, URL: "https://a/1", Rating: rating(4.5), Availability: "In Stock"},
		{ID: "B1", Name: "Axle Kit", PriceAmount: 120, PriceCurrency: "USD", Source: catalog.SourceEbay, URL: "https://e/1", Seller: "trailerdepot", SellerRating: "99.1%"},
		{ID: "A2", Name: "Coupler Latch", PriceAmount: 15, PriceCurrency: "USD", Source: catalog.SourceAmazon, URL: "https://a/2", Rating: rating(3.9)},
		{ID: "B2", Name: "Safety Chain", PriceAmount: 12, PriceCurrency: "USD", Source: catalog.SourceEbay, URL: "https://e/2"},
	}
	vecs := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}, {0.2, 0.8}}
	for i, p := range parts {
		if err := store.Upsert(ctx, p, vecs[i]); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	return store
}

func TestListSortsByPrice(t *testing.T) {
	svc := New(seedInventory(t), 0)
	page, err := svc.List(context.Background(), vector.Filter{}, SortPrice, false, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 4 || page.PageCount != 1 {
		t.Fatalf("unexpected totals: %+v", page)
	}
	var prev float64 = -1
	for _, item := range page.Items {
		if item.PriceAmount < prev {
			t.Fatalf("prices not ascending")
		}
		prev = item.PriceAmount
	}
}

func TestListRatingDescendingPutsUnratedLast(t *testing.T) {
	svc := New(seedInventory(t), 0)
	page, err := svc.List(context.Background(), vector.Filter{}, SortRating, true, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Items[0].ID != "A1" {
		t.Fatalf("expected highest rated first, got %s", page.Items[0].ID)
	}
	last := page.Items[len(page.Items)-1]
	if last.Rating != nil {
		t.Fatalf("expected unrated part last, got %s", last.ID)
	}
}

func TestListPagination(t *testing.T) {
	svc := New(seedInventory(t), 3)
	first, err := svc.List(context.Background(), vector.Filter{}, SortName, false, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 3 || first.PageCount != 2 {
		t.Fatalf("unexpected first page: %+v", first)
	}
	second, err := svc.List(context.Background(), vector.Filter{}, SortName, false, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("expected 1 item on second page, got %d", len(second.Items))
	}
	beyond, err := svc.List(context.Background(), vector.Filter{}, SortName, false, 9)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.Total != 4 {
		t.Fatalf("expected empty page with totals intact: %+v", beyond)
	}
}

func TestListFilterBySource(t *testing.T) {
	svc := New(seedInventory(t), 0)
	page, err := svc.List(context.Background(), vector.Filter{Source: catalog.SourceEbay}, SortName, false, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 ebay parts, got %d", page.Total)
	}
	for _, item := range page.Items {
		if item.Source != catalog.SourceEbay {
			t.Fatalf("filter leaked source %s", item.Source)
		}
	}
}

func TestStats(t *testing.T) {
	svc := New(seedInventory(t), 0)
	stats, filtered, err := svc.Stats(context.Background(), vector.Filter{Source: catalog.SourceAmazon})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 {
		t.Fatalf("expected 4 total, got %d", stats.Total)
	}
	if filtered != 2 {
		t.Fatalf("expected 2 filtered, got %d", filtered)
	}
}

func TestExportCSV(t *testing.T) {
	svc := New(seedInventory(t), 0)
	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), vector.Filter{}, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(records))
	}
	header := strings.Join(records[0], ",")
	want := "ID,Name,Price,Currency,Source,URL,Rating,Seller,Seller Rating,Availability"
	if header != want {
		t.Fatalf("unexpected header %q", header)
	}
	// Sorted by name, so Axle Kit leads and carries its seller fields.
	if records[1][1] != "Axle Kit" || records[1][7] != "trailerdepot" || records[1][8] != "99.1%" {
		t.Fatalf("unexpected first row %v", records[1])
	}
}
