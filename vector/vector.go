// Package vector defines the similarity-search capability consumed by the
// retrieval stage, plus embedding helpers shared by the store backends.
package vector

import (
	"context"
	"math"
)

// SearchResult is one indexed passage returned by a similarity search.
// Score is always larger-is-better: store adapters normalize distance
// metrics before results cross this boundary.
type SearchResult struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"similarity_score"`
	DocType  string         `json:"doc_type"`
}

// Searcher performs similarity search over an externally managed index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// Embedding represents a stored vector with its source text and metadata.
type Embedding struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]any
}

// Store is the indexing side of a vector backend.
type Store interface {
	AddEmbedding(ctx context.Context, embedding *Embedding) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Embedder converts text into vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA)))*float32(math.Sqrt(float64(normB))) + 1e-8)
}

// SimilarityFromDistance maps a distance metric (smaller is closer) onto a
// larger-is-better score in (0, 1].
func SimilarityFromDistance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
