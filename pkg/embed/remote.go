package embed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Remote calls an embedding service over HTTP: POST {"texts": [...]} to
// the configured endpoint, expecting {"embeddings": [[...], ...]} back.
type Remote struct {
	endpoint string
	dim      int
	client   *http.Client
}

// NewRemote creates a remote embedder. dim must match the model behind
// the endpoint.
func NewRemote(endpoint string, dim int) *Remote {
	return &Remote{
		endpoint: endpoint,
		dim:      dim,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type encodeRequest struct {
	Texts []string `json:"texts"`
}

type encodeResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Encode requests the embedding for a single text.
func (r *Remote) Encode(text string) ([]float32, error) {
	body, err := json.Marshal(encodeRequest{Texts: []string{text}})
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Post(r.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned %d", resp.StatusCode)
	}

	var decoded encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(decoded.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding service returned no vectors")
	}
	vec := decoded.Embeddings[0]
	if len(vec) != r.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", r.dim, len(vec))
	}
	return vec, nil
}

// Dimension returns the configured vector length.
func (r *Remote) Dimension() int { return r.dim }

var _ Embedder = (*Remote)(nil)
