package workflow

import (
	"context"
	"log/slog"
	"strings"

	appconfig "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// validator judges the drafted answer against its source documents and
// decides whether the workflow should re-plan.
type validator struct {
	llm    llm.Completer
	cfg    appconfig.AgentConfig
	logger *slog.Logger
}

func (v *validator) run(ctx context.Context, st *State) error {
	if !v.cfg.EnableValidation {
		st.Validation = &ValidationResult{IsValid: true, Confidence: 1.0}
		st.NeedsRetry = false
		st.CurrentStep = "validation_completed"
		return nil
	}

	result := v.judge(ctx, st.OriginalQuery, st.FinalAnswer, st.RetrievedDocuments)

	needsRetry := (!result.IsValid ||
		result.Confidence < v.cfg.MinConfidenceScore ||
		st.ConfidenceScore < v.cfg.MinConfidenceScore) &&
		st.RetryCount < v.cfg.MaxRetries

	v.logger.Info("answer validated",
		slog.Bool("valid", result.IsValid),
		slog.Float64("confidence", result.Confidence),
		slog.Bool("needs_retry", needsRetry))

	st.Validation = result
	st.NeedsRetry = needsRetry
	st.CurrentStep = "validation_completed"
	return nil
}

// fallbackValidation is used when the judge call fails or returns
// unparseable output. Accepting with moderate confidence keeps a flaky
// judge from blocking answers.
func fallbackValidation() *ValidationResult {
	return &ValidationResult{IsValid: true, Confidence: 0.7}
}

func (v *validator) judge(ctx context.Context, query, answer string, docs []vector.SearchResult) *ValidationResult {
	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	raw, err := v.llm.Complete(ctx, validationPrompt(query, answer, strings.Join(contents, "\n")))
	if err != nil {
		v.logger.Warn("validation call failed, accepting answer", slog.Any("error", err))
		return fallbackValidation()
	}

	result, err := decodeJSON[ValidationResult](raw)
	if err != nil {
		v.logger.Warn("validation response unparseable, accepting answer", slog.Any("error", err))
		return fallbackValidation()
	}
	return &result
}
