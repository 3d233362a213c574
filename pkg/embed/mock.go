package embed

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"

	"github.com/navikit/navgraph/pkg/vector"
)

// Mock is a deterministic pseudo-embedder for tests and demos. Each text
// hashes to a PRNG seed, so the same text always yields the same unit
// vector, while distinct texts land in effectively random directions.
type Mock struct {
	dim int
}

// NewMock creates a mock embedder of the given dimensionality.
func NewMock(dim int) *Mock {
	if dim <= 0 {
		dim = 384
	}
	return &Mock{dim: dim}
}

// Encode derives a unit vector from the text's hash. Never fails.
func (m *Mock) Encode(text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, m.dim)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
	}
	vector.Normalize(vec)
	return vec, nil
}

// Dimension returns the configured vector length.
func (m *Mock) Dimension() int { return m.dim }

var _ Embedder = (*Mock)(nil)
