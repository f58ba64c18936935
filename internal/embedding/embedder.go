// File path: internal/embedding/embedder.go
package embedding

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2/option"

	"github.com/nicodishanthj/partfinder/internal/common"
)

// ErrUnavailable marks embedding calls that failed because the service
// could not be reached or returned garbage. Without a query embedding
// no retrieval is possible, so the search path fails fast on it.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder converts text into a fixed-dimension vector. The same
// embedder instance must serve both the ingest and query paths;
// mixing embedding functions between the two is a correctness bug.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// NewFromEnv selects the OpenAI embedder when OPENAI_API_KEY is set
// and otherwise falls back to the deterministic local embedder, so the
// pipeline stays usable without network credentials.
func NewFromEnv() Embedder {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("embedding: OPENAI_API_KEY not set; using local hash embedder")
		return NewLocalEmbedder(0)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			opts = append(opts, option.WithRequestTimeout(timeout))
		} else {
			logger.Warn("embedding: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		}
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	logger.Info("embedding: OpenAI embedder selected")
	return NewOpenAIEmbedder(opts...)
}
