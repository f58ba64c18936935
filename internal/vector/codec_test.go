// File path: internal/vector/codec_test.go
package vector

import (
	"math"
	"testing"
)

func TestVectorCodecRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	data, err := EncodeVector(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeVector(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("value %d mismatch: %v != %v", i, in[i], out[i])
		}
	}
}

func TestCosineDistance(t *testing.T) {
	identical, err := CosineDistance([]float32{1, 2, 3}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if math.Abs(identical) > 1e-9 {
		t.Fatalf("identical vectors should be at distance 0, got %v", identical)
	}

	orthogonal, err := CosineDistance([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if math.Abs(orthogonal-1) > 1e-9 {
		t.Fatalf("orthogonal vectors should be at distance 1, got %v", orthogonal)
	}

	opposite, err := CosineDistance([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if math.Abs(opposite-2) > 1e-9 {
		t.Fatalf("opposite vectors should be at distance 2, got %v", opposite)
	}

	if _, err := CosineDistance([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestFilterMatch(t *testing.T) {
	min, max := 10.0, 30.0
	f := Filter{Source: "ebay", MinPrice: &min, MaxPrice: &max, NameContains: "brake"}
	part := samplePart("1", "Trailer Brake Shoe Set", 19.5)
	if !f.Match(part) {
		t.Fatal("expected match")
	}
	part.PriceAmount = 35
	if f.Match(part) {
		t.Fatal("price above max should not match")
	}
	part.PriceAmount = 19.5
	part.Name = "Trailer Jack"
	if f.Match(part) {
		t.Fatal("name without substring should not match")
	}
}
