package embed

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder generates deterministic hash-based embeddings for tests and
// offline development. Identical input always yields the identical vector.
type MockEmbedder struct {
	dim  int
	fail bool
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &MockEmbedder{dim: dim}
}

// NewFailingEmbedder returns an embedder whose Embed always errors, for
// exercising degraded paths.
func NewFailingEmbedder(dim int) *MockEmbedder {
	m := NewMockEmbedder(dim)
	m.fail = true
	return m
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.fail {
		return nil, context.DeadlineExceeded
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

func (m *MockEmbedder) Dimensions() int { return m.dim }

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
