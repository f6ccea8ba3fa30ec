package workflow

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/normalize"
)

// analyzer runs the first workflow stage: normalize the query, classify
// it, and either attach a direct response or a retrieval-bound analysis.
type analyzer struct {
	llm        llm.Completer
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

func (a *analyzer) run(ctx context.Context, st *State) error {
	query := strings.TrimSpace(st.OriginalQuery)
	if a.normalizer != nil {
		normalized := a.normalizer.Normalize(query)
		if normalized != query {
			a.logger.Debug("query normalized",
				slog.String("original", query),
				slog.String("normalized", normalized))
		}
		query = normalized
	}
	st.NormalizedQuery = query

	category := Classify(query)
	a.logger.Info("query classified", slog.String("category", category.String()))

	switch category {
	case CategoryGreeting:
		st.Analysis = directAnalysis(category, handleGreeting())
	case CategoryMetaConversation:
		st.Analysis = directAnalysis(category, handleMeta(query, st.ConversationHistory))
	case CategoryChitchat:
		st.Analysis = directAnalysis(category, handleChitchat(query))
	case CategoryOutOfDomain:
		st.Analysis = directAnalysis(category, outOfDomainResponse)
	case CategoryDocumentRelated:
		analysis := a.analyzeDocumentQuery(ctx, query)
		analysis.NeedsRetrieval = true
		st.Analysis = analysis
	}

	st.CurrentStep = "query_analyzed"
	return nil
}

func directAnalysis(category Category, response string) *QueryAnalysis {
	return &QueryAnalysis{
		Intent:         category.String(),
		Complexity:     ComplexitySimple,
		NeedsRetrieval: false,
		DirectResponse: response,
	}
}

// analyzeDocumentQuery asks the model for a structured analysis and falls
// back to keyword heuristics when the call or the JSON parse fails.
func (a *analyzer) analyzeDocumentQuery(ctx context.Context, query string) *QueryAnalysis {
	raw, err := a.llm.Complete(ctx, analysisPrompt(query))
	if err == nil {
		if analysis, derr := decodeJSON[QueryAnalysis](raw); derr == nil {
			if analysis.Complexity != ComplexitySimple &&
				analysis.Complexity != ComplexityMedium &&
				analysis.Complexity != ComplexityComplex {
				analysis.Complexity = ComplexityMedium
			}
			return &analysis
		} else {
			a.logger.Warn("analysis response unparseable, using heuristics", slog.Any("error", derr))
		}
	} else {
		a.logger.Warn("analysis call failed, using heuristics", slog.Any("error", err))
	}

	return &QueryAnalysis{
		Intent:     "query",
		Complexity: ComplexityMedium,
		KeyTerms:   extractKeywords(query),
		Entities:   extractEntities(query),
	}
}

var vietnameseStopwords = map[string]struct{}{
	"là": {}, "của": {}, "và": {}, "có": {}, "được": {}, "trong": {},
	"cho": {}, "với": {}, "để": {}, "khi": {}, "nào": {}, "như": {}, "về": {},
}

var (
	wordRe   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	dieuRe   = regexp.MustCompile(`Điều\s+\d+`)
	chuongRe = regexp.MustCompile(`(?i)Chương\s+[IVX]+`)
)

func extractKeywords(query string) []string {
	words := wordRe.FindAllString(strings.ToLower(query), -1)
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := vietnameseStopwords[w]; stop {
			continue
		}
		if len([]rune(w)) > 2 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// extractEntities pulls article and chapter references such as
// "Điều 12" or "Chương III".
func extractEntities(query string) []string {
	var entities []string
	entities = append(entities, dieuRe.FindAllString(query, -1)...)
	entities = append(entities, chuongRe.FindAllString(query, -1)...)
	return entities
}
