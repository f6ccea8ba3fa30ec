package workflow

import (
	"log/slog"

	appconfig "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/normalize"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/logging"
)

// Option configures an Engine.
type Option func(*Engine)

func defaultConfig() appconfig.AgentConfig {
	return appconfig.AgentConfig{
		TopK:                   10,
		MaxQueryReformulations: 3,
		EnableMultiQuery:       true,
		EnableQueryExpansion:   true,
		EnableChainOfThought:   true,
		EnableValidation:       true,
		RequireCitations:       true,
		MinConfidenceScore:     0.5,
		MaxRetries:             1,
		StepBudget:             50,
	}
}

// WithAgentConfig replaces the full agent configuration.
func WithAgentConfig(cfg appconfig.AgentConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithTopK caps how many documents survive the retrieval merge.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.cfg.TopK = k
		}
	}
}

// WithMaxRetries bounds how many times a rejected answer is re-planned.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.cfg.MaxRetries = n
		}
	}
}

// WithValidation toggles the answer validation stage.
func WithValidation(enabled bool) Option {
	return func(e *Engine) { e.cfg.EnableValidation = enabled }
}

// WithChainOfThought toggles sub-question decomposition for complex queries.
func WithChainOfThought(enabled bool) Option {
	return func(e *Engine) { e.cfg.EnableChainOfThought = enabled }
}

// WithMultiQuery toggles query reformulation during planning.
func WithMultiQuery(enabled bool) Option {
	return func(e *Engine) { e.cfg.EnableMultiQuery = enabled }
}

// WithQueryExpansion toggles the domain-term expansion query.
func WithQueryExpansion(enabled bool) Option {
	return func(e *Engine) { e.cfg.EnableQueryExpansion = enabled }
}

// WithCitations toggles the citation footer on formatted answers.
func WithCitations(required bool) Option {
	return func(e *Engine) { e.cfg.RequireCitations = required }
}

// WithMinConfidence sets the validation confidence floor.
func WithMinConfidence(score float64) Option {
	return func(e *Engine) {
		if score >= 0 && score <= 1 {
			e.cfg.MinConfidenceScore = score
		}
	}
}

// WithNormalizer replaces the query normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.normalizer = n
		}
	}
}

// WithHistoryStore attaches a persistent conversation store. When set,
// Ask records both the user query and the final answer.
func WithHistoryStore(store history.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithLogger replaces the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func defaultLogger() *slog.Logger {
	return logging.WithComponent("workflow")
}
