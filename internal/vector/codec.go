// File path: internal/vector/codec.go
package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector serializes a float32 vector as little-endian bytes with
// a length prefix, the layout used by the sqlite-backed store.
func EncodeVector(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(vec))); err != nil {
		return nil, fmt.Errorf("write vector length: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("write vector values: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(data []byte) ([]float32, error) {
	buf := bytes.NewReader(data)
	var length int32
	if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("read vector length: %w", err)
	}
	if length < 0 {
		return nil, fmt.Errorf("negative vector length %d", length)
	}
	vec := make([]float32, length)
	if err := binary.Read(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("read vector values: %w", err)
	}
	return vec, nil
}

// CosineDistance returns 1 minus the cosine similarity of a and b,
// giving a distance in [0, 2]. A zero-magnitude vector compares at the
// maximum ordinary distance of 1 so it never outranks a real match.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d != %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1, nil
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - similarity, nil
}
