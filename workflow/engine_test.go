package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	appllm "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// stubCompleter replays scripted responses in order, repeating the last
// one once the script is exhausted.
type stubCompleter struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

type stubSearcher struct {
	results []vector.SearchResult
	err     error
	calls   int
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]vector.SearchResult, error) {
	s.calls++
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func regulationDocs() []vector.SearchResult {
	return []vector.SearchResult{
		{Content: "Sinh viên có học phần bị điểm F phải đăng ký học lại học phần đó.", Score: 0.9, DocType: "Điều 12"},
		{Content: "Điểm học phần được tính theo thang điểm chữ.", Score: 0.8, DocType: "Điều 10"},
	}
}

const simpleAnalysis = `{"intent":"query","complexity":"simple","key_terms":["điểm"]}`
const validJudgment = `{"is_valid":true,"confidence":0.9}`
const invalidJudgment = `{"is_valid":false,"confidence":0.2,"issues":["thiếu thông tin"]}`

func TestGreetingSkipsRetrievalAndModel(t *testing.T) {
	llm := &stubCompleter{}
	searcher := &stubSearcher{}

	engine, err := New(llm, searcher)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "xin chào", nil)

	if result.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", result.Confidence)
	}
	if len(result.Citations) != 0 {
		t.Fatalf("expected no citations, got %v", result.Citations)
	}
	if result.Answer == "" {
		t.Fatal("expected a greeting answer")
	}
	if searcher.calls != 0 {
		t.Fatalf("expected no vector search, got %d calls", searcher.calls)
	}
	if llm.calls != 0 {
		t.Fatalf("expected no completion calls, got %d", llm.calls)
	}
}

func TestOutOfDomainRefusal(t *testing.T) {
	llm := &stubCompleter{}
	searcher := &stubSearcher{}

	engine, err := New(llm, searcher)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "tính đạo hàm của x^2", nil)

	if result.Answer != outOfDomainResponse {
		t.Fatalf("expected the fixed refusal, got %q", result.Answer)
	}
	if searcher.calls != 0 {
		t.Fatalf("expected no vector search, got %d calls", searcher.calls)
	}
	if result.Metadata.Analysis == nil || result.Metadata.Analysis.NeedsRetrieval {
		t.Fatal("expected needs_retrieval=false for out-of-domain query")
	}
}

func TestSlangIsNormalizedBeforeRetrieval(t *testing.T) {
	llm := &stubCompleter{responses: []string{
		simpleAnalysis,
		"Sinh viên bị điểm F phải đăng ký học lại theo Điều 12.",
	}}
	searcher := &stubSearcher{results: regulationDocs()}

	engine, err := New(llm, searcher, WithValidation(false))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "sv rớt môn phải làm gì", nil)

	if searcher.calls == 0 {
		t.Fatal("expected retrieval for a regulation question")
	}
	for _, q := range searcher.queries {
		if strings.Contains(q, "sv ") || strings.Contains(q, "rớt môn") {
			t.Fatalf("expected normalized search query, got %q", q)
		}
	}
	if !strings.Contains(searcher.queries[0], "sinh viên") {
		t.Fatalf("expected %q to contain the expanded abbreviation", searcher.queries[0])
	}
	if !strings.Contains(result.Answer, "Điều 12") {
		t.Fatalf("unexpected answer %q", result.Answer)
	}
	if result.Metadata.NumDocuments != 2 {
		t.Fatalf("expected 2 documents, got %d", result.Metadata.NumDocuments)
	}
}

func TestEmptyRetrievalAnswersWithoutReasoningCall(t *testing.T) {
	llm := &stubCompleter{responses: []string{simpleAnalysis}}
	searcher := &stubSearcher{}

	engine, err := New(llm, searcher, WithValidation(false))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "điều kiện tốt nghiệp loại giỏi", nil)

	if !strings.Contains(result.Answer, noInformationAnswer) {
		t.Fatalf("expected the no-information answer, got %q", result.Answer)
	}
	if result.Confidence != 0.0 {
		t.Fatalf("expected confidence 0, got %v", result.Confidence)
	}
	// One call for analysis, none for reasoning.
	if llm.calls != 1 {
		t.Fatalf("expected exactly 1 completion call, got %d", llm.calls)
	}
}

func TestValidationFailureTriggersSingleRetry(t *testing.T) {
	llm := &stubCompleter{responses: []string{
		simpleAnalysis,
		"Câu trả lời lần đầu.",
		invalidJudgment,
		"Câu trả lời sau khi thử lại, theo Điều 12.",
		validJudgment,
	}}
	searcher := &stubSearcher{results: regulationDocs()}

	engine, err := New(llm, searcher, WithMaxRetries(1))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "sinh viên bị điểm F phải làm gì", nil)

	if result.Metadata.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", result.Metadata.RetryCount)
	}
	if !strings.Contains(result.Answer, "thử lại") {
		t.Fatalf("expected the retried answer, got %q", result.Answer)
	}
	if result.Metadata.Validation == nil || !result.Metadata.Validation.IsValid {
		t.Fatal("expected the final validation to pass")
	}
}

func TestRetryCountNeverExceedsMaxRetries(t *testing.T) {
	llm := &stubCompleter{responses: []string{
		simpleAnalysis,
		"Câu trả lời.",
		invalidJudgment,
	}}
	searcher := &stubSearcher{results: regulationDocs()}

	engine, err := New(llm, searcher, WithMaxRetries(1))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "quy chế thi kết thúc học phần", nil)

	if result.Metadata.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", result.Metadata.RetryCount)
	}
	// The second rejection must still reach a terminal formatted answer.
	if result.Answer == "" || result.Answer == apologyAnswer {
		t.Fatalf("expected a formatted answer despite failing validation, got %q", result.Answer)
	}
	if result.Metadata.ErrorCode != "" {
		t.Fatalf("expected no error code, got %q", result.Metadata.ErrorCode)
	}
}

func TestStepBudgetExceededReturnsApology(t *testing.T) {
	llm := &stubCompleter{responses: []string{simpleAnalysis}}
	searcher := &stubSearcher{results: regulationDocs()}

	cfg := defaultConfig()
	cfg.StepBudget = 2

	engine, err := New(llm, searcher, WithAgentConfig(cfg))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "điều kiện học cùng lúc hai chương trình", nil)

	if result.Metadata.ErrorCode != codeStepBudgetExceeded {
		t.Fatalf("expected error code %q, got %q", codeStepBudgetExceeded, result.Metadata.ErrorCode)
	}
	if result.Answer != apologyAnswer {
		t.Fatalf("expected the apology answer, got %q", result.Answer)
	}
	if result.Confidence != 0.0 {
		t.Fatalf("expected confidence 0, got %v", result.Confidence)
	}
}

func TestSearchFailureYieldsCapabilityCode(t *testing.T) {
	model := appllm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return simpleAnalysis, nil
	})
	searcher := &stubSearcher{err: errors.New("connection refused")}

	engine, err := New(model, searcher, WithValidation(false))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "quy định về nghỉ học tạm thời", nil)

	if result.Metadata.ErrorCode != codeCapabilityFailure {
		t.Fatalf("expected error code %q, got %q", codeCapabilityFailure, result.Metadata.ErrorCode)
	}
	if result.Answer != apologyAnswer {
		t.Fatalf("expected the apology answer, got %q", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Fatalf("expected empty citations, got %v", result.Citations)
	}
}

func TestMetaConversationUsesHistoryOnly(t *testing.T) {
	llm := &stubCompleter{}
	searcher := &stubSearcher{}

	engine, err := New(llm, searcher)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	hist := []*message.Message{
		message.NewMessage(message.RoleUser, "Điều kiện tốt nghiệp là gì?"),
		message.NewMessage(message.RoleAssistant, "Theo Điều 27..."),
	}

	result := engine.Run(context.Background(), "tôi vừa hỏi gì", hist)

	if !strings.Contains(result.Answer, "Điều kiện tốt nghiệp là gì?") {
		t.Fatalf("expected the previous question in the answer, got %q", result.Answer)
	}
	if llm.calls != 0 || searcher.calls != 0 {
		t.Fatalf("expected no model or search calls, got %d/%d", llm.calls, searcher.calls)
	}
}

func TestUnparseableAnalysisFallsBackToHeuristics(t *testing.T) {
	llm := &stubCompleter{responses: []string{
		"this is not JSON",
		"Theo Điều 15, sinh viên được rút bớt học phần đã đăng ký.",
		validJudgment,
	}}
	searcher := &stubSearcher{results: regulationDocs()}

	engine, err := New(llm, searcher, WithMultiQuery(false))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "sinh viên được rút bớt học phần khi nào theo Điều 15", nil)

	if result.Metadata.ErrorCode != "" {
		t.Fatalf("expected success, got error code %q", result.Metadata.ErrorCode)
	}
	analysis := result.Metadata.Analysis
	if analysis == nil {
		t.Fatal("expected analysis metadata")
	}
	if analysis.Complexity != ComplexityMedium {
		t.Fatalf("expected fallback complexity medium, got %q", analysis.Complexity)
	}
	if len(analysis.Entities) == 0 || analysis.Entities[0] != "Điều 15" {
		t.Fatalf("expected extracted entity, got %v", analysis.Entities)
	}
}

func TestConfidenceAlwaysWithinUnitInterval(t *testing.T) {
	queries := []string{
		"xin chào",
		"cảm ơn nhé",
		"tính đạo hàm của x^2",
		"sinh viên thi lại bao nhiêu lần",
	}

	llm := &stubCompleter{responses: []string{simpleAnalysis, "Trả lời.", validJudgment}}
	searcher := &stubSearcher{results: []vector.SearchResult{
		{Content: "nội dung", Score: 1.7, DocType: "Điều 9"},
	}}

	engine, err := New(llm, searcher)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for _, q := range queries {
		result := engine.Run(context.Background(), q, nil)
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Fatalf("query %q: confidence %v out of range", q, result.Confidence)
		}
	}
}

func TestComplexQueryUsesChainOfThought(t *testing.T) {
	complexAnalysis := `{"intent":"comparison","complexity":"complex","sub_questions":["Điều kiện cảnh báo học tập là gì?","Khi nào sinh viên bị buộc thôi học?"]}`

	llm := &stubCompleter{responses: []string{
		complexAnalysis,
		"Trả lời câu hỏi con thứ nhất.",
		"Trả lời câu hỏi con thứ hai.",
		"Tổng hợp: cảnh báo học tập dẫn đến buộc thôi học theo Điều 16.",
		validJudgment,
	}}
	searcher := &stubSearcher{results: regulationDocs()}

	engine, err := New(llm, searcher, WithMultiQuery(false))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "phân biệt cảnh báo học tập và buộc thôi học", nil)

	if !strings.Contains(result.Answer, "Tổng hợp") {
		t.Fatalf("expected the synthesized answer, got %q", result.Answer)
	}
	// analysis + two sub-questions + synthesis + validation
	if llm.calls != 5 {
		t.Fatalf("expected 5 completion calls, got %d", llm.calls)
	}
	if !strings.Contains(llm.prompts[3], "Trả lời câu hỏi con thứ nhất.") {
		t.Fatalf("expected synthesis prompt to include sub-answers, got %q", llm.prompts[3])
	}
}

func TestCitationFooterAndDisclaimer(t *testing.T) {
	llm := &stubCompleter{responses: []string{
		simpleAnalysis,
		"Trả lời dựa trên quy chế.",
		validJudgment,
	}}
	searcher := &stubSearcher{results: []vector.SearchResult{
		{Content: "nội dung a", Score: 0.6, DocType: "Điều 5"},
		{Content: "nội dung b", Score: 0.55, DocType: "Chương II"},
	}}

	engine, err := New(llm, searcher)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := engine.Run(context.Background(), "cách tính điểm trung bình học kỳ", nil)

	if !strings.Contains(result.Answer, "Nguồn tham khảo:") {
		t.Fatalf("expected citation footer, got %q", result.Answer)
	}
	// Average of 0.6 and 0.55 is below 0.7, so the notice must appear.
	if !strings.Contains(result.Answer, "Lưu ý") {
		t.Fatalf("expected low-confidence notice, got %q", result.Answer)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %v", result.Citations)
	}
}
