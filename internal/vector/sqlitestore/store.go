// File path: internal/vector/sqlitestore/store.go
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common/telemetry"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

// Store is the default durable vector.Store: parts and their embedding
// vectors live in a single SQLite table, and nearest-neighbour queries
// scan the corpus computing cosine distance in process. The corpus is
// small (thousands of listings), so a brute-force scan stays well
// under query latency budgets without an index structure.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the given
// path. The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	cfg.applyDefaults()
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BusyTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS parts (
                source TEXT NOT NULL,
                part_id TEXT NOT NULL,
                name TEXT NOT NULL,
                price_amount REAL NOT NULL,
                price_currency TEXT NOT NULL,
                url TEXT NOT NULL DEFAULT '',
                rating REAL,
                review_count INTEGER NOT NULL DEFAULT 0,
                prime INTEGER NOT NULL DEFAULT 0,
                seller TEXT NOT NULL DEFAULT '',
                seller_rating TEXT NOT NULL DEFAULT '',
                availability TEXT NOT NULL DEFAULT '',
                brand TEXT NOT NULL DEFAULT '',
                category TEXT NOT NULL DEFAULT '',
                image_url TEXT NOT NULL DEFAULT '',
                embedding_text TEXT NOT NULL,
                embedding BLOB NOT NULL,
                updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                PRIMARY KEY (source, part_id)
        );`,
	`CREATE TABLE IF NOT EXISTS store_meta (
                key TEXT PRIMARY KEY,
                value TEXT NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_parts_source ON parts(source);`,
	`CREATE INDEX IF NOT EXISTS idx_parts_price ON parts(price_amount);`,
}

type partRow struct {
	catalog.Part
	Embedding []byte    `db:"embedding"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Upsert writes the part and its vector in a single statement, so a
// concurrent reader sees either the old record or the new one, never a
// mix. The vector dimension must match the store's established
// dimension.
func (s *Store) Upsert(ctx context.Context, part catalog.Part, vec []float32) error {
	if s == nil || s.db == nil {
		return vector.ErrUnavailable
	}
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for %s", part.Key())
	}
	if err := s.checkDimension(ctx, len(vec)); err != nil {
		return err
	}
	blob, err := vector.EncodeVector(vec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
                INSERT INTO parts (
                        source, part_id, name, price_amount, price_currency, url,
                        rating, review_count, prime, seller, seller_rating,
                        availability, brand, category, image_url, embedding_text, embedding,
                        updated_at
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
                ON CONFLICT(source, part_id) DO UPDATE SET
                        name = excluded.name,
                        price_amount = excluded.price_amount,
                        price_currency = excluded.price_currency,
                        url = excluded.url,
                        rating = excluded.rating,
                        review_count = excluded.review_count,
                        prime = excluded.prime,
                        seller = excluded.seller,
                        seller_rating = excluded.seller_rating,
                        availability = excluded.availability,
                        brand = excluded.brand,
                        category = excluded.category,
                        image_url = excluded.image_url,
                        embedding_text = excluded.embedding_text,
                        embedding = excluded.embedding,
                        updated_at = CURRENT_TIMESTAMP`,
		part.Source, part.ID, part.Name, part.PriceAmount, part.PriceCurrency, part.URL,
		part.Rating, part.ReviewCount, part.Prime, part.Seller, part.SellerRating,
		part.Availability, part.Brand, part.Category, part.ImageURL, part.EmbeddingText, blob,
	)
	if err != nil {
		return fmt.Errorf("upsert part %s: %w", part.Key(), err)
	}
	return nil
}

func (s *Store) checkDimension(ctx context.Context, dim int) error {
	var stored string
	err := s.db.GetContext(ctx, &stored, `SELECT value FROM store_meta WHERE key = 'dimension'`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO store_meta (key, value) VALUES ('dimension', ?) ON CONFLICT(key) DO NOTHING`,
			fmt.Sprintf("%d", dim))
		if err != nil {
			return fmt.Errorf("record dimension: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read dimension: %w", err)
	}
	if stored != fmt.Sprintf("%d", dim) {
		return fmt.Errorf("vector dimension %d does not match store dimension %s", dim, stored)
	}
	return nil
}

// Query returns the k nearest parts by cosine distance, ascending.
func (s *Store) Query(ctx context.Context, vec []float32, k int) ([]vector.Match, error) {
	if s == nil || s.db == nil {
		return nil, vector.ErrUnavailable
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	start := time.Now()
	rows := []partRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM parts`); err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	matches := make([]vector.Match, 0, len(rows))
	for _, row := range rows {
		stored, err := vector.DecodeVector(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", row.Part.Key(), err)
		}
		dist, err := vector.CosineDistance(vec, stored)
		if err != nil {
			return nil, err
		}
		matches = append(matches, vector.Match{Part: row.Part, Distance: dist, Vector: stored})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	telemetry.RecordVectorSearch(time.Since(start))
	return matches, nil
}

// Scan returns all parts satisfying the filter. The conjunction is
// pushed into SQL; the substring match is case-insensitive.
func (s *Store) Scan(ctx context.Context, filter vector.Filter) ([]catalog.Part, error) {
	if s == nil || s.db == nil {
		return nil, vector.ErrUnavailable
	}
	query := `SELECT * FROM parts WHERE 1=1`
	args := []interface{}{}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.MinPrice != nil {
		query += ` AND price_amount >= ?`
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query += ` AND price_amount <= ?`
		args = append(args, *filter.MaxPrice)
	}
	if filter.NameContains != "" {
		query += ` AND instr(lower(name), lower(?)) > 0`
		args = append(args, filter.NameContains)
	}
	query += ` ORDER BY source, part_id`
	rows := []partRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	parts := make([]catalog.Part, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, row.Part)
	}
	return parts, nil
}

// Count returns the number of stored parts.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, vector.ErrUnavailable
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM parts`); err != nil {
		return 0, fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	return count, nil
}

// Stats aggregates per-source counts and price bounds.
func (s *Store) Stats(ctx context.Context) (vector.Stats, error) {
	if s == nil || s.db == nil {
		return vector.Stats{}, vector.ErrUnavailable
	}
	stats := vector.Stats{PerSource: make(map[catalog.Source]int)}
	perSource := []struct {
		Source catalog.Source `db:"source"`
		Count  int            `db:"count"`
	}{}
	if err := s.db.SelectContext(ctx, &perSource, `SELECT source, COUNT(*) AS count FROM parts GROUP BY source`); err != nil {
		return vector.Stats{}, fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	for _, row := range perSource {
		stats.PerSource[row.Source] = row.Count
		stats.Total += row.Count
	}
	if stats.Total == 0 {
		return stats, nil
	}
	bounds := struct {
		Min float64 `db:"min"`
		Max float64 `db:"max"`
		Avg float64 `db:"avg"`
	}{}
	if err := s.db.GetContext(ctx, &bounds,
		`SELECT MIN(price_amount) AS min, MAX(price_amount) AS max, AVG(price_amount) AS avg FROM parts`); err != nil {
		return vector.Stats{}, fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	stats.PriceMin = bounds.Min
	stats.PriceMax = bounds.Max
	stats.PriceAvg = bounds.Avg
	return stats, nil
}

var _ vector.Store = (*Store)(nil)
