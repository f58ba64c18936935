// File path: internal/embedding/local_test.go
package embedding

import (
	"context"
	"math"
	"testing"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	emb := NewLocalEmbedder(0)
	a, err := emb.Embed(context.Background(), "heavy duty trailer brake shoe")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := emb.Embed(context.Background(), "heavy duty trailer brake shoe")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(a) != emb.Dimension() {
		t.Fatalf("expected dimension %d, got %d", emb.Dimension(), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at index %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestLocalEmbedderNormalized(t *testing.T) {
	emb := NewLocalEmbedder(64)
	vec, err := emb.Embed(context.Background(), "7x14 enclosed cargo trailer axle")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	emb := NewLocalEmbedder(32)
	vec, err := emb.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector for empty text, index %d is %f", i, v)
		}
	}
}

func TestLocalEmbedderSimilarTextsCloser(t *testing.T) {
	emb := NewLocalEmbedder(0)
	ctx := context.Background()
	base, _ := emb.Embed(ctx, "trailer brake shoe kit")
	near, _ := emb.Embed(ctx, "brake shoe kit for trailer")
	far, _ := emb.Embed(ctx, "stainless steel door hinge")
	if dot(base, near) <= dot(base, far) {
		t.Fatalf("expected paraphrase to be closer than unrelated text")
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
