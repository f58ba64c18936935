// File path: internal/embedding/openai.go
package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/nicodishanthj/partfinder/internal/common"
)

const openAIDefaultDimension = 1536

// OpenAIEmbedder calls the OpenAI embeddings API. The model defaults
// to text-embedding-3-small and can be overridden via
// OPENAI_EMBED_MODEL.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dim    int
}

func NewOpenAIEmbedder(opts ...option.RequestOption) *OpenAIEmbedder {
	model := strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	if model == "" {
		model = "text-embedding-3-small"
	}
	logger := common.Logger()
	logger.Info("embedding: OpenAI embedder configured", "model", model)
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model, dim: openAIDefaultDimension}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrUnavailable)
	}
	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	if len(vec) != e.dim {
		e.dim = len(vec)
	}
	return vec, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) Name() string { return "openai:" + e.model }
