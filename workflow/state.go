package workflow

import (
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// Complexity grades how much retrieval effort a query deserves.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Strategy names the retrieval plan chosen for a query.
type Strategy string

const (
	StrategySingleQuery        Strategy = "single_query"
	StrategyMultiQuery         Strategy = "multi_query"
	StrategyMultiQueryExpanded Strategy = "multi_query_with_expansion"
)

// QueryAnalysis captures what the analyze stage learned about the query.
type QueryAnalysis struct {
	Intent         string     `json:"intent"`
	Complexity     Complexity `json:"complexity"`
	NeedsRetrieval bool       `json:"needs_retrieval"`
	DirectResponse string     `json:"direct_response,omitempty"`
	KeyTerms       []string   `json:"key_terms,omitempty"`
	Entities       []string   `json:"entities,omitempty"`
	SubQuestions   []string   `json:"sub_questions,omitempty"`
}

// ValidationResult is the judgment produced by the validation stage.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Confidence  float64  `json:"confidence"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// State is the mutable record threaded through all workflow stages. One
// instance exists per query; it is owned exclusively by the in-flight run
// and is never shared between requests.
type State struct {
	// Immutable input.
	OriginalQuery       string
	NormalizedQuery     string
	ConversationHistory []*message.Message

	// Analyze stage.
	Analysis *QueryAnalysis

	// Plan stage.
	ReformulatedQueries []string
	RetrievalStrategy   Strategy

	// Retrieve stage.
	RetrievedDocuments []vector.SearchResult

	// Reason stage.
	FinalAnswer     string
	ConfidenceScore float64
	Citations       []string

	// Validate stage.
	Validation *ValidationResult
	NeedsRetry bool
	RetryCount int

	// Diagnostic only; never used for control flow.
	CurrentStep string
}

func newState(query string, hist []*message.Message) *State {
	return &State{
		OriginalQuery:       query,
		ConversationHistory: hist,
		CurrentStep:         "initialized",
	}
}

// ResultMetadata carries diagnostic details alongside the answer.
type ResultMetadata struct {
	Analysis          *QueryAnalysis    `json:"query_analysis,omitempty"`
	NumDocuments      int               `json:"num_documents"`
	RetrievalStrategy Strategy          `json:"retrieval_strategy,omitempty"`
	RetryCount        int               `json:"retry_count"`
	Validation        *ValidationResult `json:"validation,omitempty"`
	ErrorCode         string            `json:"error_code,omitempty"`
}

// Result is the terminal outcome of one workflow run. It is always
// populated: failures are converted into an apology answer with an error
// code in metadata rather than escaping to the caller.
type Result struct {
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Citations  []string       `json:"citations"`
	Metadata   ResultMetadata `json:"metadata"`
}
