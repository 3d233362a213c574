// Package embed defines the text-embedding capability consumed by the
// retrieval engine. The model itself is external; the engine only needs
// text in, fixed-length vector out, deterministic within a session.
package embed

// Embedder encodes text into a fixed-length vector.
type Embedder interface {
	// Encode returns the embedding for text. Must be deterministic for
	// identical input within a session.
	Encode(text string) ([]float32, error)
	// Dimension is the fixed length of every vector Encode returns.
	Dimension() int
}
