// File path: internal/embedding/local.go
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const localDefaultDimension = 256

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// LocalEmbedder is a deterministic, dependency-free embedder: each
// token is hashed into a fixed number of buckets and the resulting
// count vector is L2-normalized. It is no substitute for a semantic
// model, but it keeps the pipeline runnable offline and gives tests a
// stable embedding space.
type LocalEmbedder struct {
	dim int
}

func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = localDefaultDimension
	}
	return &LocalEmbedder{dim: dim}
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	for _, token := range tokens {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (e *LocalEmbedder) Dimension() int { return e.dim }

func (e *LocalEmbedder) Name() string { return "local-hash" }
