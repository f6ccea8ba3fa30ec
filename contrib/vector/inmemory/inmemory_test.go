package inmemory

import (
	"context"
	"strings"
	"testing"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// keywordEmbedder maps text onto a tiny keyword space for deterministic
// similarity ordering in tests.
type keywordEmbedder struct{}

var keywordSpace = []string{"điểm", "tín chỉ", "tốt nghiệp", "học phần"}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(keywordSpace))
	lower := strings.ToLower(text)
	for idx, kw := range keywordSpace {
		if strings.Contains(lower, kw) {
			vec[idx] = 1
		}
	}
	return vec, nil
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := k.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (k *keywordEmbedder) Dimension() int { return len(keywordSpace) }

func addDoc(t *testing.T, s *InMemoryVectorStore, id, text, docType string) {
	t.Helper()
	emb := &keywordEmbedder{}
	vec, _ := emb.Embed(context.Background(), text)
	err := s.AddEmbedding(context.Background(), &vector.Embedding{
		ID:       id,
		Vector:   vec,
		Text:     text,
		Metadata: map[string]any{"doc_type": docType},
	})
	if err != nil {
		t.Fatalf("AddEmbedding error: %v", err)
	}
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	s := NewInMemoryVectorStore(&keywordEmbedder{})

	addDoc(t, s, "d1", "quy định về điểm và tín chỉ", "Điều 10")
	addDoc(t, s, "d2", "quy định về điểm", "Điều 11")
	addDoc(t, s, "d3", "thủ tục hành chính", "Chương V")

	results, err := s.Search(context.Background(), "cách tính điểm theo tín chỉ", 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Content != "quy định về điểm và tín chỉ" {
		t.Fatalf("expected the best match first, got %q", results[0].Content)
	}
	if results[0].DocType != "Điều 10" {
		t.Fatalf("expected doc_type propagated, got %q", results[0].DocType)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted at %d", i)
		}
	}
}

func TestSearchHonorsK(t *testing.T) {
	s := NewInMemoryVectorStore(&keywordEmbedder{})
	addDoc(t, s, "d1", "điểm học phần", "Điều 1")
	addDoc(t, s, "d2", "điểm thi", "Điều 2")
	addDoc(t, s, "d3", "điểm rèn luyện", "Điều 3")

	results, err := s.Search(context.Background(), "điểm", 2)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestAddEmbeddingValidation(t *testing.T) {
	s := NewInMemoryVectorStore(&keywordEmbedder{})
	ctx := context.Background()

	if err := s.AddEmbedding(ctx, nil); err == nil {
		t.Fatal("expected error for nil embedding")
	}
	if err := s.AddEmbedding(ctx, &vector.Embedding{Vector: []float32{1}}); err == nil {
		t.Fatal("expected error for missing ID")
	}
	if err := s.AddEmbedding(ctx, &vector.Embedding{ID: "x"}); err == nil {
		t.Fatal("expected error for empty vector")
	}
}

func TestClearAndCount(t *testing.T) {
	s := NewInMemoryVectorStore(&keywordEmbedder{})
	ctx := context.Background()

	addDoc(t, s, "d1", "điểm", "Điều 1")
	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("expected count 0 after clear, got %d", n)
	}
}
