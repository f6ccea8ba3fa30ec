package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	appconfig "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	apperrors "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/errors"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/tokens"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// noInformationAnswer is returned verbatim when retrieval found nothing.
const noInformationAnswer = "Xin lỗi, tôi không tìm thấy thông tin liên quan trong cơ sở dữ liệu."

// contextTokenBudget caps the document block fed to a completion so the
// prompt stays well inside the model window.
const contextTokenBudget = 6000

// reasoner turns retrieved documents into an answer, a confidence score
// and a citation list.
type reasoner struct {
	llm     llm.Completer
	cfg     appconfig.AgentConfig
	counter *tokens.Counter
	logger  *slog.Logger
}

func (r *reasoner) run(ctx context.Context, st *State) error {
	docs := st.RetrievedDocuments

	if len(docs) == 0 {
		st.FinalAnswer = noInformationAnswer
		st.ConfidenceScore = 0.0
		st.Citations = nil
		st.CurrentStep = "reasoning_completed"
		return nil
	}

	query := st.OriginalQuery

	var answer string
	var err error
	if r.cfg.EnableChainOfThought && st.Analysis != nil &&
		st.Analysis.Complexity == ComplexityComplex && len(st.Analysis.SubQuestions) > 0 {
		answer, err = r.chainOfThought(ctx, query, st.Analysis.SubQuestions, docs)
	} else {
		answer, err = r.direct(ctx, query, docs)
	}
	if err != nil {
		return apperrors.Capability("reasoning completion", err)
	}

	confidence := confidenceFromScores(docs)
	r.logger.Info("reasoning completed", slog.Float64("confidence", confidence))

	st.FinalAnswer = answer
	st.ConfidenceScore = confidence
	st.Citations = extractCitations(docs)
	st.CurrentStep = "reasoning_completed"
	return nil
}

func (r *reasoner) direct(ctx context.Context, query string, docs []vector.SearchResult) (string, error) {
	raw, err := r.llm.Complete(ctx, reasoningPrompt(query, r.contextBlock(docs)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// chainOfThought answers each sub-question against the same document set,
// then synthesizes the partial answers into one response.
func (r *reasoner) chainOfThought(ctx context.Context, query string, subQuestions []string, docs []vector.SearchResult) (string, error) {
	intermediate := make([]string, 0, len(subQuestions))
	for i, subQ := range subQuestions {
		r.logger.Debug("answering sub-question", slog.Int("index", i+1), slog.String("question", subQ))
		answer, err := r.direct(ctx, subQ, docs)
		if err != nil {
			return "", err
		}
		intermediate = append(intermediate,
			fmt.Sprintf("**Câu hỏi %d:** %s\n**Trả lời:** %s", i+1, subQ, answer))
	}

	raw, err := r.llm.Complete(ctx, synthesisPrompt(query, intermediate))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// contextBlock renders the top documents as a source-tagged context
// section, trimmed to the token budget.
func (r *reasoner) contextBlock(docs []vector.SearchResult) string {
	limit := 5
	if len(docs) < limit {
		limit = len(docs)
	}

	parts := make([]string, 0, limit)
	for _, doc := range docs[:limit] {
		docType := doc.DocType
		if docType == "" {
			docType = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Nguồn: %s]\n%s", docType, doc.Content))
	}

	block := strings.Join(parts, "\n\n---\n\n")
	if r.counter != nil {
		block = r.counter.Truncate(block, contextTokenBudget)
	}
	return block
}

// confidenceFromScores averages the similarity of the top three
// documents and caps the result at 0.95.
func confidenceFromScores(docs []vector.SearchResult) float64 {
	if len(docs) == 0 {
		return 0.0
	}
	n := 3
	if len(docs) < n {
		n = len(docs)
	}
	var sum float64
	for _, doc := range docs[:n] {
		sum += doc.Score
	}
	avg := sum / float64(n)
	if avg > 0.95 {
		return 0.95
	}
	if avg < 0 {
		return 0.0
	}
	return avg
}

// extractCitations collects the distinct doc_type labels of the top
// three documents, in first-seen order.
func extractCitations(docs []vector.SearchResult) []string {
	limit := 3
	if len(docs) < limit {
		limit = len(docs)
	}

	seen := make(map[string]struct{}, limit)
	var citations []string
	for _, doc := range docs[:limit] {
		docType := doc.DocType
		if docType == "" {
			docType = "Unknown"
		}
		if _, dup := seen[docType]; dup {
			continue
		}
		seen[docType] = struct{}{}
		citations = append(citations, docType)
	}
	return citations
}
