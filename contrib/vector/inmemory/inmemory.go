package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// InMemoryVectorStore implements vector.Store and vector.Searcher using
// in-process storage with cosine similarity. Intended for tests and demos.
type InMemoryVectorStore struct {
	embedder   vector.Embedder
	embeddings map[string]*vector.Embedding
	mu         sync.RWMutex
}

// NewInMemoryVectorStore creates a new in-memory vector store. The embedder
// is used to vectorize search queries.
func NewInMemoryVectorStore(embedder vector.Embedder) *InMemoryVectorStore {
	return &InMemoryVectorStore{
		embedder:   embedder,
		embeddings: make(map[string]*vector.Embedding),
	}
}

// AddEmbedding adds a new embedding to the store
func (s *InMemoryVectorStore) AddEmbedding(ctx context.Context, embedding *vector.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedding == nil {
		return fmt.Errorf("embedding cannot be nil")
	}
	if embedding.ID == "" {
		return fmt.Errorf("embedding ID cannot be empty")
	}
	if len(embedding.Vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}

	s.embeddings[embedding.ID] = embedding
	return nil
}

// Search embeds the query and returns the topK closest passages by cosine
// similarity, highest score first.
func (s *InMemoryVectorStore) Search(ctx context.Context, query string, k int) ([]vector.SearchResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder is required for search")
	}
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = 10
	}

	type scored struct {
		emb        *vector.Embedding
		similarity float32
	}

	results := make([]scored, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		results = append(results, scored{
			emb:        emb,
			similarity: vector.CosineSimilarity(queryVector, emb.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})

	limit := k
	if limit > len(results) {
		limit = len(results)
	}

	out := make([]vector.SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		emb := results[i].emb
		docType, _ := emb.Metadata["doc_type"].(string)
		out = append(out, vector.SearchResult{
			Content:  emb.Text,
			Metadata: emb.Metadata,
			Score:    float64(results[i].similarity),
			DocType:  docType,
		})
	}
	return out, nil
}

// DeleteEmbedding removes an embedding by ID
func (s *InMemoryVectorStore) DeleteEmbedding(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.embeddings[id]; !exists {
		return fmt.Errorf("embedding not found")
	}
	delete(s.embeddings, id)
	return nil
}

// Clear removes all embeddings
func (s *InMemoryVectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = make(map[string]*vector.Embedding)
	return nil
}

// Count returns the number of embeddings
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.embeddings), nil
}
