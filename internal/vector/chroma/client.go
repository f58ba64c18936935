// File path: internal/vector/chroma/client.go
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/common/telemetry"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

// Client implements vector.Store against a ChromaDB server. The
// collection is created with cosine distance so the store's distance
// contract matches the sqlite backend.
type Client struct {
	httpClient *http.Client

	baseURL      string
	collection   string
	collectionID string
	available    bool
	apiKey       string

	mu sync.RWMutex
}

// NewFromEnv constructs a client from CHROMADB_* environment
// configuration.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration. A server
// that cannot be reached at construction time yields a client whose
// operations fail with vector.ErrUnavailable rather than a nil client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	baseURL := fmt.Sprintf("%s://%s:%s/api/v1", cfg.Scheme, cfg.Host, cfg.Port)
	logger := common.Logger()
	logger.Info("chroma: initializing client", "host", cfg.Host, "port", cfg.Port, "collection", cfg.Collection)

	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
	}
	if err := client.ensureReady(ctx); err != nil {
		logger.Warn("chroma: initialization failed", "collection", cfg.Collection, "error", err)
		return client, nil
	}
	logger.Info("chroma: connection established")
	return client, nil
}

// Collection reports the collection name the client targets.
func (c *Client) Collection() string {
	return c.collection
}

// Available reports whether the server answered the last readiness
// probe.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Client) ensureReady(ctx context.Context) error {
	if c == nil {
		return vector.ErrUnavailable
	}
	c.mu.RLock()
	ready := c.available && c.collectionID != ""
	c.mu.RUnlock()
	if ready {
		return nil
	}
	if err := c.heartbeat(ctx); err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	if err := c.ensureCollectionID(ctx); err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	c.mu.Lock()
	c.available = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Upsert(ctx context.Context, part catalog.Part, vec []float32) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for %s", part.Key())
	}
	payload := map[string]interface{}{
		"ids":        []string{part.Key()},
		"embeddings": [][]float32{vec},
		"documents":  []string{part.EmbeddingText},
		"metadatas":  []map[string]interface{}{metadataFromPart(part)},
	}
	endpoint := fmt.Sprintf("%s/collections/%s/upsert", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		if errors.Is(err, errNotFound) {
			fallback := fmt.Sprintf("%s/collections/%s/add", c.baseURL, url.PathEscape(c.collectionIDLocked()))
			return c.doRequest(ctx, http.MethodPost, fallback, payload, nil)
		}
		return err
	}
	return nil
}

func (c *Client) Query(ctx context.Context, vec []float32, k int) ([]vector.Match, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	body := map[string]interface{}{
		"query_embeddings": [][]float32{vec},
		"n_results":        k,
		"include":          []string{"metadatas", "documents", "distances", "embeddings"},
	}
	endpoint := fmt.Sprintf("%s/collections/%s/query", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	var resp struct {
		IDs        [][]string                 `json:"ids"`
		Distances  [][]float64                `json:"distances"`
		Metadatas  [][]map[string]interface{} `json:"metadatas"`
		Embeddings [][][]float32              `json:"embeddings"`
	}
	start := time.Now()
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	telemetry.RecordVectorSearch(time.Since(start))
	if len(resp.IDs) == 0 {
		return nil, nil
	}
	matches := make([]vector.Match, 0, len(resp.IDs[0]))
	for idx := range resp.IDs[0] {
		var meta map[string]interface{}
		if len(resp.Metadatas) > 0 && idx < len(resp.Metadatas[0]) {
			meta = resp.Metadatas[0][idx]
		}
		match := vector.Match{Part: partFromMetadata(resp.IDs[0][idx], meta)}
		if len(resp.Distances) > 0 && idx < len(resp.Distances[0]) {
			match.Distance = resp.Distances[0][idx]
		}
		if len(resp.Embeddings) > 0 && idx < len(resp.Embeddings[0]) {
			match.Vector = resp.Embeddings[0][idx]
		}
		matches = append(matches, match)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	return matches, nil
}

// Scan fetches the whole collection and filters client side: the
// substring name constraint has no server-side counterpart in the
// Chroma where-filter grammar.
func (c *Client) Scan(ctx context.Context, filter vector.Filter) ([]catalog.Part, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	body := map[string]interface{}{"include": []string{"metadatas"}}
	endpoint := fmt.Sprintf("%s/collections/%s/get", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	var resp struct {
		IDs       []string                 `json:"ids"`
		Metadatas []map[string]interface{} `json:"metadatas"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	parts := make([]catalog.Part, 0, len(resp.IDs))
	for idx, id := range resp.IDs {
		var meta map[string]interface{}
		if idx < len(resp.Metadatas) {
			meta = resp.Metadatas[idx]
		}
		part := partFromMetadata(id, meta)
		if filter.Match(part) {
			parts = append(parts, part)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Key() < parts[j].Key() })
	return parts, nil
}

func (c *Client) Count(ctx context.Context) (int, error) {
	if err := c.ensureReady(ctx); err != nil {
		return 0, err
	}
	endpoint := fmt.Sprintf("%s/collections/%s/count", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	var count int
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) Stats(ctx context.Context) (vector.Stats, error) {
	parts, err := c.Scan(ctx, vector.Filter{})
	if err != nil {
		return vector.Stats{}, err
	}
	stats := vector.Stats{PerSource: make(map[catalog.Source]int)}
	var sum float64
	for _, part := range parts {
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

var _ vector.Store = (*Client)(nil)

func metadataFromPart(part catalog.Part) map[string]interface{} {
	meta := map[string]interface{}{
		"part_id":        part.ID,
		"name":           part.Name,
		"price_amount":   part.PriceAmount,
		"price_currency": part.PriceCurrency,
		"source":         string(part.Source),
		"url":            part.URL,
		"embedding_text": part.EmbeddingText,
	}
	if part.Rating != nil {
		meta["rating"] = *part.Rating
	}
	if part.ReviewCount > 0 {
		meta["review_count"] = part.ReviewCount
	}
	if part.Prime {
		meta["prime"] = true
	}
	for key, value := range map[string]string{
		"seller":        part.Seller,
		"seller_rating": part.SellerRating,
		"availability":  part.Availability,
		"brand":         part.Brand,
		"category":      part.Category,
		"image_url":     part.ImageURL,
	} {
		if value != "" {
			meta[key] = value
		}
	}
	return meta
}

func partFromMetadata(id string, meta map[string]interface{}) catalog.Part {
	part := catalog.Part{
		ID:            metaString(meta, "part_id"),
		Name:          metaString(meta, "name"),
		PriceAmount:   metaFloat(meta, "price_amount"),
		PriceCurrency: metaString(meta, "price_currency"),
		Source:        catalog.Source(metaString(meta, "source")),
		URL:           metaString(meta, "url"),
		Seller:        metaString(meta, "seller"),
		SellerRating:  metaString(meta, "seller_rating"),
		Availability:  metaString(meta, "availability"),
		Brand:         metaString(meta, "brand"),
		Category:      metaString(meta, "category"),
		ImageURL:      metaString(meta, "image_url"),
		EmbeddingText: metaString(meta, "embedding_text"),
	}
	if part.ID == "" {
		// ids are stored as "source:part_id"
		if idx := strings.IndexByte(id, ':'); idx > 0 {
			part.Source = catalog.Source(id[:idx])
			part.ID = id[idx+1:]
		} else {
			part.ID = id
		}
	}
	if rating, ok := meta["rating"]; ok {
		if value, ok := toFloat(rating); ok && value >= 0 && value <= 5 {
			part.Rating = &value
		}
	}
	if count, ok := toFloat(meta["review_count"]); ok {
		part.ReviewCount = int(count)
	}
	if prime, ok := meta["prime"].(bool); ok {
		part.Prime = prime
	}
	return part
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if value, ok := meta[key].(string); ok {
		return value
	}
	return ""
}

func metaFloat(meta map[string]interface{}, key string) float64 {
	if meta == nil {
		return 0
	}
	value, _ := toFloat(meta[key])
	return value
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func (c *Client) collectionIDLocked() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectionID
}

func (c *Client) ensureCollectionID(ctx context.Context) error {
	c.mu.RLock()
	if c.collectionID != "" {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()
	id, err := c.findCollection(ctx, c.collection)
	if err != nil {
		return err
	}
	if id == "" {
		id, err = c.createCollection(ctx, c.collection)
		if err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.collectionID = id
	c.mu.Unlock()
	return nil
}

func (c *Client) findCollection(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/collections", c.baseURL)
	var resp []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", err
	}
	for _, col := range resp {
		if strings.EqualFold(col.Name, name) {
			return col.ID, nil
		}
	}
	return "", nil
}

func (c *Client) createCollection(ctx context.Context, name string) (string, error) {
	payload := map[string]interface{}{
		"name":     name,
		"metadata": map[string]interface{}{"hnsw:space": "cosine"},
	}
	endpoint := fmt.Sprintf("%s/collections", c.baseURL)
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		if errors.Is(err, errConflict) {
			return c.findCollection(ctx, name)
		}
		return "", err
	}
	return resp.ID, nil
}

var (
	errNotFound = errors.New("resource not found")
	errConflict = errors.New("resource conflict")
)

func (c *Client) heartbeat(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/heartbeat", c.baseURL)
	return c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return vector.ErrUnavailable
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
