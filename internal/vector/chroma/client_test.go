// File path: internal/vector/chroma/client_test.go
package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

type fakeChroma struct {
	ids        []string
	embeddings [][]float32
	metadatas  []map[string]interface{}
}

func (f *fakeChroma) upsert(ids []string, embeddings [][]float32, metadatas []map[string]interface{}) {
	for i, id := range ids {
		replaced := false
		for j, existing := range f.ids {
			if existing == id {
				f.embeddings[j] = embeddings[i]
				f.metadatas[j] = metadatas[i]
				replaced = true
				break
			}
		}
		if !replaced {
			f.ids = append(f.ids, id)
			f.embeddings = append(f.embeddings, embeddings[i])
			f.metadatas = append(f.metadatas, metadatas[i])
		}
	}
}

func newFakeServer(t *testing.T) (*httptest.Server, *fakeChroma) {
	t.Helper()
	fake := &fakeChroma{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int64{"nanosecond heartbeat": time.Now().UnixNano()})
	})
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1"})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{})
	})
	mux.HandleFunc("/api/v1/collections/col-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			IDs        []string                 `json:"ids"`
			Embeddings [][]float32              `json:"embeddings"`
			Metadatas  []map[string]interface{} `json:"metadatas"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fake.upsert(payload.IDs, payload.Embeddings, payload.Metadatas)
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		distances := make([]float64, len(fake.ids))
		for i := range distances {
			distances[i] = float64(i) * 0.1
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ids":        [][]string{fake.ids},
			"distances":  [][]float64{distances},
			"metadatas":  [][]map[string]interface{}{fake.metadatas},
			"embeddings": [][][]float32{fake.embeddings},
		})
	})
	mux.HandleFunc("/api/v1/collections/col-1/get", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ids":       fake.ids,
			"metadatas": fake.metadatas,
		})
	})
	mux.HandleFunc("/api/v1/collections/col-1/count", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(len(fake.ids))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, fake
}

func clientFor(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	cfg := Config{
		Host:       parsed.Hostname(),
		Port:       parsed.Port(),
		Scheme:     parsed.Scheme,
		Collection: "trailer_parts",
		Timeout:    2 * time.Second,
	}
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if !client.Available() {
		t.Fatalf("expected client to be available")
	}
	return client
}

func TestClientRoundTrip(t *testing.T) {
	server, _ := newFakeServer(t)
	client := clientFor(t, server)
	ctx := context.Background()

	rating := 4.5
	part := catalog.Part{
		ID:            "B001",
		Name:          "Trailer Brake Shoe Set",
		PriceAmount:   19.99,
		PriceCurrency: "USD",
		Source:        catalog.SourceAmazon,
		URL:           "https://www.amazon.com/dp/B001",
		Rating:        &rating,
		Availability:  "In Stock",
		EmbeddingText: "Trailer Brake Shoe Set",
	}
	if err := client.Upsert(ctx, part, []float32{1, 0, 0}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	count, err := client.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	matches, err := client.Query(ctx, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	got := matches[0].Part
	if got.Key() != "amazon:B001" || got.Name != part.Name || got.PriceAmount != part.PriceAmount {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.Rating == nil || *got.Rating != 4.5 {
		t.Fatalf("rating lost in metadata round-trip: %+v", got.Rating)
	}
	if len(matches[0].Vector) != 3 {
		t.Fatalf("expected stored vector in match")
	}
}

func TestClientScanFilters(t *testing.T) {
	server, _ := newFakeServer(t)
	client := clientFor(t, server)
	ctx := context.Background()

	parts := []catalog.Part{
		{ID: "B001", Name: "Brake Shoe Set", PriceAmount: 20, PriceCurrency: "USD", Source: catalog.SourceAmazon, EmbeddingText: "Brake Shoe Set"},
		{ID: "123", Name: "Axle Kit", PriceAmount: 120, PriceCurrency: "USD", Source: catalog.SourceEbay, EmbeddingText: "Axle Kit"},
	}
	for i, p := range parts {
		if err := client.Upsert(ctx, p, []float32{float32(i), 1}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := client.Scan(ctx, vector.Filter{Source: catalog.SourceEbay})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 1 || got[0].Key() != "ebay:123" {
		t.Fatalf("unexpected scan result: %+v", got)
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.PerSource[catalog.SourceAmazon] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestClientUnreachableServer(t *testing.T) {
	cfg := Config{
		Host:       "127.0.0.1",
		Port:       "1", // nothing listens here
		Scheme:     "http",
		Collection: "trailer_parts",
		Timeout:    200 * time.Millisecond,
	}
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Available() {
		t.Fatalf("expected unavailable client")
	}
	_, err = client.Query(context.Background(), []float32{1}, 3)
	if !errors.Is(err, vector.ErrUnavailable) {
		t.Fatalf("expected vector.ErrUnavailable, got %v", err)
	}
}
