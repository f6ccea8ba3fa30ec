package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appconfig "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	apperrors "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/errors"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/normalize"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/telemetry"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/tokens"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// stage identifies a node in the workflow loop. Transitions are decided
// by the Engine after each stage runs; there is no graph machinery.
type stage int

const (
	stageAnalyze stage = iota
	stageDirectResponse
	stagePlan
	stageRetrieve
	stageReason
	stageValidate
	stageFormat
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageAnalyze:
		return "analyze"
	case stageDirectResponse:
		return "direct_response"
	case stagePlan:
		return "plan"
	case stageRetrieve:
		return "retrieve"
	case stageReason:
		return "reason"
	case stageValidate:
		return "validate"
	case stageFormat:
		return "format"
	case stageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Error codes surfaced in Result metadata when a run cannot complete
// normally.
const (
	codeStepBudgetExceeded = "step_budget_exceeded"
	codeCapabilityFailure  = "capability_failure"
	codeInternalPanic      = "internal_panic"
)

const apologyAnswer = "Xin lỗi, đã có lỗi xảy ra khi xử lý câu hỏi của bạn. Vui lòng thử lại sau."

// Engine drives one query through analyze, plan, retrieve, reason,
// validate and format. A single Engine is safe for concurrent use: all
// per-query state lives in the State value owned by each Run call.
type Engine struct {
	cfg        appconfig.AgentConfig
	llm        llm.Completer
	searcher   vector.Searcher
	normalizer *normalize.Normalizer
	store      history.Store
	counter    *tokens.Counter
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New builds an Engine around a completion model and a document searcher.
func New(completer llm.Completer, searcher vector.Searcher, opts ...Option) (*Engine, error) {
	if completer == nil {
		return nil, apperrors.Configuration("workflow", fmt.Errorf("completer is required"))
	}
	if searcher == nil {
		return nil, apperrors.Configuration("workflow", fmt.Errorf("searcher is required"))
	}

	e := &Engine{
		cfg:        defaultConfig(),
		llm:        completer,
		searcher:   searcher,
		normalizer: normalize.New(),
		counter:    tokens.NewCounter(),
		logger:     defaultLogger(),
		tracer:     telemetry.Tracer("workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := appconfig.ValidateAgentConfig(e.cfg.TopK, e.cfg.MaxRetries,
		e.cfg.MaxQueryReformulations, e.cfg.StepBudget, e.cfg.MinConfidenceScore); err != nil {
		return nil, err
	}
	return e, nil
}

// Run processes one query. It never returns an error: any failure is
// converted into an apology Result carrying an error code in metadata.
func (e *Engine) Run(ctx context.Context, query string, hist []*message.Message) (res *Result) {
	ctx, span := e.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(attribute.Int("history_length", len(hist))))
	defer span.End()

	st := newState(query, hist)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("workflow panicked", slog.Any("panic", r))
			res = e.failure(st, codeInternalPanic)
		}
	}()

	analyze := &analyzer{llm: e.llm, normalizer: e.normalizer, logger: e.logger}
	plan := &planner{llm: e.llm, cfg: e.cfg, logger: e.logger}
	retrieve := &retriever{searcher: e.searcher, topK: e.cfg.TopK, logger: e.logger}
	reason := &reasoner{llm: e.llm, cfg: e.cfg, counter: e.counter, logger: e.logger}
	validate := &validator{llm: e.llm, cfg: e.cfg, logger: e.logger}

	current := stageAnalyze
	steps := 0

	for current != stageDone {
		steps++
		if steps > e.cfg.StepBudget {
			e.logger.Error("step budget exceeded",
				slog.Int("budget", e.cfg.StepBudget),
				slog.String("stage", current.String()))
			return e.failure(st, codeStepBudgetExceeded)
		}

		var err error
		next := stageDone

		switch current {
		case stageAnalyze:
			err = e.traced(ctx, current, func(ctx context.Context) error { return analyze.run(ctx, st) })
			if err == nil {
				if st.Analysis.NeedsRetrieval {
					next = stagePlan
				} else {
					next = stageDirectResponse
				}
			}
		case stageDirectResponse:
			st.FinalAnswer = st.Analysis.DirectResponse
			st.ConfidenceScore = 1.0
			st.Citations = nil
			st.CurrentStep = "direct_response_completed"
		case stagePlan:
			err = e.traced(ctx, current, func(ctx context.Context) error { return plan.run(ctx, st) })
			next = stageRetrieve
		case stageRetrieve:
			err = e.traced(ctx, current, func(ctx context.Context) error { return retrieve.run(ctx, st) })
			next = stageReason
		case stageReason:
			err = e.traced(ctx, current, func(ctx context.Context) error { return reason.run(ctx, st) })
			next = stageValidate
		case stageValidate:
			err = e.traced(ctx, current, func(ctx context.Context) error { return validate.run(ctx, st) })
			if err == nil {
				if st.NeedsRetry {
					st.RetryCount++
					st.NeedsRetry = false
					next = stagePlan
				} else {
					next = stageFormat
				}
			}
		case stageFormat:
			st.FinalAnswer = formatAnswer(st.FinalAnswer, st.Citations, st.ConfidenceScore, e.cfg.RequireCitations)
			st.CurrentStep = "response_formatted"
		}

		if err != nil {
			e.logger.Error("stage failed",
				slog.String("stage", current.String()),
				slog.Any("error", err))
			return e.failure(st, errorCode(err))
		}
		current = next
	}

	return resultFromState(st)
}

// Ask runs a query inside a persisted session: history is loaded from
// the store, and both the question and the answer are recorded.
func (e *Engine) Ask(ctx context.Context, sessionID, query string) (*Result, error) {
	if e.store == nil {
		return nil, apperrors.Configuration("workflow", fmt.Errorf("no history store attached"))
	}

	hist, err := e.store.History(ctx, sessionID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	result := e.Run(ctx, query, hist)

	if err := e.store.Append(ctx, sessionID, message.RoleUser, query, nil); err != nil {
		e.logger.Warn("record user message", slog.Any("error", err))
	}
	meta := map[string]any{"confidence": result.Confidence}
	if err := e.store.Append(ctx, sessionID, message.RoleAssistant, result.Answer, meta); err != nil {
		e.logger.Warn("record assistant message", slog.Any("error", err))
	}
	return result, nil
}

func (e *Engine) traced(ctx context.Context, s stage, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "workflow."+s.String())
	err := fn(ctx)
	telemetry.End(span, err)
	return err
}

func (e *Engine) failure(st *State, code string) *Result {
	return &Result{
		Answer:     apologyAnswer,
		Confidence: 0.0,
		Citations:  []string{},
		Metadata: ResultMetadata{
			Analysis:          st.Analysis,
			NumDocuments:      len(st.RetrievedDocuments),
			RetrievalStrategy: st.RetrievalStrategy,
			RetryCount:        st.RetryCount,
			ErrorCode:         code,
		},
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrStepBudget):
		return codeStepBudgetExceeded
	default:
		return codeCapabilityFailure
	}
}

func resultFromState(st *State) *Result {
	citations := st.Citations
	if citations == nil {
		citations = []string{}
	}
	return &Result{
		Answer:     st.FinalAnswer,
		Confidence: st.ConfidenceScore,
		Citations:  citations,
		Metadata: ResultMetadata{
			Analysis:          st.Analysis,
			NumDocuments:      len(st.RetrievedDocuments),
			RetrievalStrategy: st.RetrievalStrategy,
			RetryCount:        st.RetryCount,
			Validation:        st.Validation,
		},
	}
}
