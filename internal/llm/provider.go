// File path: internal/llm/provider.go
package llm

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2/option"

	"github.com/nicodishanthj/partfinder/internal/common"
)

// ErrUnavailable marks chat completions that failed because the model
// endpoint could not be reached. Callers are expected to degrade
// gracefully rather than surface it to users.
var ErrUnavailable = errors.New("llm provider unavailable")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a minimal chat interface. Search only needs a single
// completion per query, so there is no streaming surface.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// NewProvider selects the OpenAI provider when OPENAI_API_KEY is set
// and otherwise returns the local template provider so that selection
// still produces a recommendation offline.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("llm: OPENAI_API_KEY not set; using local provider")
		return NewLocalProvider()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			opts = append(opts, option.WithRequestTimeout(timeout))
		}
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	logger.Info("llm: OpenAI provider selected")
	return NewOpenAIProvider(opts...)
}
