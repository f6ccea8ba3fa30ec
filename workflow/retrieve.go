package workflow

import (
	"context"
	"log/slog"
	"sort"

	apperrors "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/errors"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// retriever executes every planned query against the vector store and
// merges the result lists into one deduplicated, ranked set.
type retriever struct {
	searcher vector.Searcher
	topK     int
	logger   *slog.Logger
}

func (r *retriever) run(ctx context.Context, st *State) error {
	queries := st.ReformulatedQueries
	if len(queries) == 0 {
		queries = []string{st.OriginalQuery}
	}

	lists := make([][]vector.SearchResult, 0, len(queries))
	for _, q := range queries {
		results, err := r.searcher.Search(ctx, q, r.topK)
		if err != nil {
			return apperrors.Capability("vector search", err)
		}
		lists = append(lists, results)
	}

	merged := mergeResults(lists, r.topK)

	if len(merged) > 0 {
		r.logger.Info("documents retrieved",
			slog.Int("count", len(merged)),
			slog.Float64("top_score", merged[0].Score))
	} else {
		r.logger.Info("documents retrieved", slog.Int("count", 0))
	}

	st.RetrievedDocuments = merged
	st.CurrentStep = "documents_retrieved"
	return nil
}

// mergeResults combines per-query result lists: duplicates (by exact
// content, first occurrence kept) are dropped, the rest sorted by
// non-increasing score with ties keeping arrival order, and the output
// truncated to topK.
func mergeResults(lists [][]vector.SearchResult, topK int) []vector.SearchResult {
	if topK <= 0 {
		topK = 10
	}

	seen := make(map[string]struct{})
	var merged []vector.SearchResult
	for _, list := range lists {
		for _, doc := range list {
			if _, dup := seen[doc.Content]; dup {
				continue
			}
			seen[doc.Content] = struct{}{}
			merged = append(merged, doc)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
