// File path: internal/ingest/connector.go
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nicodishanthj/partfinder/internal/catalog"
)

// Connector supplies raw marketplace records. Scrapers live outside
// this process; a connector only hands over what they produced.
type Connector interface {
	Source() catalog.Source
	Fetch(ctx context.Context, query string) ([]catalog.RawRecord, error)
}

// FileConnector reads a JSON dump file written by an external scraper:
// a top-level array of flat objects. Scalar values are stringified so
// the normalizer sees one uniform record shape regardless of how the
// scraper typed its fields.
type FileConnector struct {
	source catalog.Source
	path   string
}

func NewFileConnector(source catalog.Source, path string) *FileConnector {
	return &FileConnector{source: source, path: path}
}

func (c *FileConnector) Source() catalog.Source { return c.source }

func (c *FileConnector) Fetch(ctx context.Context, query string) ([]catalog.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(c.path))
	if err != nil {
		return nil, fmt.Errorf("read dump %s: %w", c.path, err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse dump %s: %w", c.path, err)
	}
	records := make([]catalog.RawRecord, 0, len(rows))
	for _, row := range rows {
		record := make(catalog.RawRecord, len(row))
		for key, value := range row {
			record[key] = stringify(value)
		}
		records = append(records, record)
	}
	return records, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
