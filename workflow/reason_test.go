package workflow

import (
	"strings"
	"testing"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

func TestConfidenceFromScores(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"no documents", nil, 0.0},
		{"single document", []float64{0.8}, 0.8},
		{"two documents", []float64{0.8, 0.6}, 0.7},
		{"only top three count", []float64{0.9, 0.9, 0.9, 0.1, 0.1}, 0.9},
		{"capped at 0.95", []float64{1.0, 1.0, 1.0}, 0.95},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs := make([]vector.SearchResult, len(tc.scores))
			for i, s := range tc.scores {
				docs[i] = vector.SearchResult{Score: s}
			}
			got := confidenceFromScores(docs)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractCitationsDeduplicates(t *testing.T) {
	docs := []vector.SearchResult{
		{DocType: "Điều 12"},
		{DocType: "Điều 12"},
		{DocType: "Chương III"},
		{DocType: "Điều 99"}, // beyond the top three, ignored
	}

	citations := extractCitations(docs)

	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %v", citations)
	}
	if citations[0] != "Điều 12" || citations[1] != "Chương III" {
		t.Fatalf("unexpected citation order: %v", citations)
	}
}

func TestExtractCitationsLabelsMissingDocType(t *testing.T) {
	citations := extractCitations([]vector.SearchResult{{Content: "x"}})
	if len(citations) != 1 || citations[0] != "Unknown" {
		t.Fatalf("expected [Unknown], got %v", citations)
	}
}

func TestContextBlockTagsSources(t *testing.T) {
	r := &reasoner{}
	docs := []vector.SearchResult{
		{Content: "nội dung một", DocType: "Điều 3"},
		{Content: "nội dung hai", DocType: "Chương I"},
	}

	block := r.contextBlock(docs)

	if !strings.Contains(block, "[Nguồn: Điều 3]") || !strings.Contains(block, "[Nguồn: Chương I]") {
		t.Fatalf("expected source tags, got %q", block)
	}
	if !strings.Contains(block, "\n\n---\n\n") {
		t.Fatalf("expected document separator, got %q", block)
	}
}

func TestFormatAnswer(t *testing.T) {
	t.Run("citations appended", func(t *testing.T) {
		got := formatAnswer("Nội dung.", []string{"Điều 1", "Chương II"}, 0.9, true)
		if !strings.Contains(got, "Nguồn tham khảo:") || !strings.Contains(got, "Điều 1, Chương II") {
			t.Fatalf("expected citation footer, got %q", got)
		}
		if strings.Contains(got, "Lưu ý") {
			t.Fatalf("unexpected disclaimer at high confidence: %q", got)
		}
	})

	t.Run("citations disabled", func(t *testing.T) {
		got := formatAnswer("Nội dung.", []string{"Điều 1"}, 0.9, false)
		if strings.Contains(got, "Nguồn tham khảo:") {
			t.Fatalf("unexpected citation footer: %q", got)
		}
	})

	t.Run("low confidence disclaimer", func(t *testing.T) {
		got := formatAnswer("Nội dung.", nil, 0.4, true)
		if !strings.Contains(got, "40%") {
			t.Fatalf("expected confidence percentage, got %q", got)
		}
	})
}

func TestExtractKeywordsDropsStopwords(t *testing.T) {
	keywords := extractKeywords("điều kiện của sinh viên là gì trong học kỳ")

	for _, kw := range keywords {
		if kw == "của" || kw == "là" || kw == "trong" {
			t.Fatalf("stopword %q leaked into keywords %v", kw, keywords)
		}
	}
	if !containsStr(strings.Join(keywords, " "), "sinh") {
		t.Fatalf("expected content words, got %v", keywords)
	}
}

func TestExtractEntities(t *testing.T) {
	entities := extractEntities("So sánh Điều 12 và Điều 14 trong Chương III")

	want := map[string]bool{"Điều 12": true, "Điều 14": true, "Chương III": true}
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %v", entities)
	}
	for _, e := range entities {
		if !want[e] {
			t.Fatalf("unexpected entity %q in %v", e, entities)
		}
	}
}
