// File path: internal/ingest/runner_test.go
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/vector"
	"github.com/nicodishanthj/partfinder/internal/vector/memstore"
)

func TestRunSkipsMalformedRecords(t *testing.T) {
	store := memstore.New()
	runner := NewRunner(embedding.NewLocalEmbedder(32), store)

	records := []catalog.RawRecord{
		{"asin": "B001", "title": "Trailer Brake Shoe Set", "price": "$19.99", "url": "https://www.amazon.com/dp/B001"},
		{"asin": "B002", "title": "Coupler Latch"}, // no price
		{"asin": "B003", "price": "$5.00"},         // no name
		{"asin": "B004", "title": "Safety Chain", "price": "$12.50", "url": "https://www.amazon.com/dp/B004"},
	}

	report, err := runner.Run(context.Background(), catalog.SourceAmazon, records)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Ingested != 2 || report.Skipped != 2 {
		t.Fatalf("expected 2 ingested / 2 skipped, got %+v", report)
	}
	if report.JobID == "" {
		t.Fatalf("expected a job id")
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 stored parts, got %d", count)
	}
}

func TestRunIdempotentAcrossBatches(t *testing.T) {
	store := memstore.New()
	runner := NewRunner(embedding.NewLocalEmbedder(32), store)
	records := []catalog.RawRecord{
		{"asin": "B001", "title": "Trailer Brake Shoe Set", "price": "$19.99", "url": "https://www.amazon.com/dp/B001"},
	}

	for i := 0; i < 2; i++ {
		if _, err := runner.Run(context.Background(), catalog.SourceAmazon, records); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("re-ingesting the same record must not duplicate it, count=%d", count)
	}
}

func TestFileConnector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ebay_dump.json")
	dump := `[
		{"item_id": "123", "title": "Axle Kit", "price": 119.99, "seller": "trailerdepot", "url": "https://www.ebay.com/itm/123"},
		{"item_id": "124", "title": "Hub Assembly", "price": "54.50", "url": "https://www.ebay.com/itm/124"}
	]`
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	conn := NewFileConnector(catalog.SourceEbay, path)
	records, err := conn.Fetch(context.Background(), "axle")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["price"] != "119.99" {
		t.Fatalf("numeric price not stringified: %q", records[0]["price"])
	}
	if records[0]["seller"] != "trailerdepot" {
		t.Fatalf("unexpected seller %q", records[0]["seller"])
	}
}

func TestRunConnectorEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "amazon_dump.json")
	dump := `[{"asin": "B009", "title": "Leaf Spring", "price": "$44.00", "url": "https://www.amazon.com/dp/B009", "rating": "4.3 out of 5 stars"}]`
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	store := memstore.New()
	runner := NewRunner(embedding.NewLocalEmbedder(32), store)
	report, err := runner.RunConnector(context.Background(), NewFileConnector(catalog.SourceAmazon, path), "leaf spring")
	if err != nil {
		t.Fatalf("run connector: %v", err)
	}
	if report.Ingested != 1 {
		t.Fatalf("expected 1 ingested, got %+v", report)
	}

	parts, err := store.Scan(context.Background(), vector.Filter{NameContains: "leaf"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(parts) != 1 || parts[0].Rating == nil || *parts[0].Rating != 4.3 {
		t.Fatalf("stored part missing parsed rating: %+v", parts)
	}
}
