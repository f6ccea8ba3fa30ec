package workflow

import (
	"context"
	"log/slog"
	"strings"

	appconfig "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
)

// planner picks a retrieval strategy from the query complexity and
// produces the search query set.
type planner struct {
	llm    llm.Completer
	cfg    appconfig.AgentConfig
	logger *slog.Logger
}

func (p *planner) run(ctx context.Context, st *State) error {
	query := st.NormalizedQuery
	if query == "" {
		query = st.OriginalQuery
	}

	complexity := ComplexityMedium
	if st.Analysis != nil && st.Analysis.Complexity != "" {
		complexity = st.Analysis.Complexity
	}

	var strategy Strategy
	var queries []string

	switch complexity {
	case ComplexitySimple:
		strategy = StrategySingleQuery
		queries = []string{query}
	case ComplexityMedium:
		strategy = StrategyMultiQuery
		if p.cfg.EnableMultiQuery {
			queries = p.reformulate(ctx, query)
		} else {
			queries = []string{query}
		}
	default:
		strategy = StrategyMultiQueryExpanded
		if p.cfg.EnableMultiQuery {
			queries = p.reformulate(ctx, query)
			if p.cfg.EnableQueryExpansion {
				if expanded := p.expand(ctx, query); expanded != "" {
					queries = append(queries, expanded)
				}
			}
		} else {
			queries = []string{query}
		}
	}

	p.logger.Info("retrieval planned",
		slog.String("strategy", string(strategy)),
		slog.Int("queries", len(queries)))

	st.RetrievalStrategy = strategy
	st.ReformulatedQueries = queries
	st.CurrentStep = "retrieval_planned"
	return nil
}

// reformulate asks the model for alternative phrasings. The original
// query is always present, and the result is capped at max+1 entries.
// On any failure the original query alone is returned.
func (p *planner) reformulate(ctx context.Context, query string) []string {
	n := p.cfg.MaxQueryReformulations
	if n <= 0 {
		return []string{query}
	}

	raw, err := p.llm.Complete(ctx, reformulationPrompt(query, n))
	if err != nil {
		p.logger.Warn("reformulation failed, using original query", slog.Any("error", err))
		return []string{query}
	}

	var queries []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			queries = append(queries, line)
		}
	}
	if len(queries) == 0 {
		return []string{query}
	}

	if !contains(queries, query) {
		queries = append([]string{query}, queries...)
	}
	if len(queries) > n+1 {
		queries = queries[:n+1]
	}
	return queries
}

func (p *planner) expand(ctx context.Context, query string) string {
	raw, err := p.llm.Complete(ctx, expansionPrompt(query))
	if err != nil {
		p.logger.Warn("query expansion failed", slog.Any("error", err))
		return ""
	}
	return strings.TrimSpace(raw)
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
