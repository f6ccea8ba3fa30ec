package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	embedderopenai "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/contrib/embedder/openai"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/contrib/provider/claude"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/contrib/provider/gemini"
	provideropenai "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/contrib/provider/openai"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/contrib/vector/inmemory"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/contrib/vector/pg"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/history/store"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/ingest"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/llm"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/normalize"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/logging"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/telemetry"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/workflow"
	openaisdk "github.com/openai/openai-go/v3"
)

func main() {
	var (
		question   = flag.String("q", "", "ask a single question and exit")
		ingestPath = flag.String("ingest", "", "index a regulation document (HTML or text), then serve")
		sessionID  = flag.String("session", "", "conversation session ID (enables persisted history)")
		memoryOnly = flag.Bool("memory", false, "use the in-memory vector store instead of pgvector")
		verbose    = flag.Bool("verbose", false, "show query rewrites applied before retrieval")
	)
	flag.Parse()

	ctx := context.Background()
	logger := logging.WithComponent("cli")

	shutdown, err := telemetry.Init(ctx, telemetry.Config{})
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer shutdown(ctx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	completer, closeProvider, err := buildProvider(ctx, cfg.Model)
	if err != nil {
		log.Fatalf("build LLM provider: %v", err)
	}
	defer closeProvider()

	embedder := embedderopenai.New(cfg.Model.APIKey, cfg.Model.BaseURL,
		openaisdk.EmbeddingModel(cfg.Model.EmbeddingModel), cfg.Model.EmbeddingDimension)

	searcher, vstore, closeStore, err := buildVectorBackend(cfg, embedder, *memoryOnly)
	if err != nil {
		log.Fatalf("build vector store: %v", err)
	}
	defer closeStore()

	if *ingestPath != "" {
		indexer := ingest.NewIndexer(embedder, vstore)
		n, err := indexer.IndexFile(ctx, *ingestPath)
		if err != nil {
			log.Fatalf("index %s: %v", *ingestPath, err)
		}
		logger.Info("ingest complete", slog.String("path", *ingestPath), slog.Int("chunks", n))
	}

	opts := []workflow.Option{workflow.WithAgentConfig(cfg.Agent)}

	var hist history.Store
	if *sessionID != "" {
		mongo, err := store.NewMongoStore(cfg.Mongo)
		if err != nil {
			logger.Warn("mongo unavailable, using in-memory history", slog.Any("error", err))
			hist = store.NewInMemoryStore()
		} else {
			hist = mongo
		}
		defer hist.Close(ctx)
		opts = append(opts, workflow.WithHistoryStore(hist))
	}

	engine, err := workflow.New(completer, searcher, opts...)
	if err != nil {
		log.Fatalf("build workflow engine: %v", err)
	}

	var norm *normalize.Normalizer
	if *verbose {
		norm = normalize.New()
	}

	if *question != "" {
		answer(ctx, engine, norm, *sessionID, *question, nil)
		return
	}

	repl(ctx, engine, norm, *sessionID)
}

func buildProvider(ctx context.Context, cfg config.ModelConfig) (llm.Completer, func(), error) {
	noop := func() {}
	switch cfg.Provider {
	case "openai":
		p := provideropenai.New(&provideropenai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ChatModel,
			MaxTokens:   int64(cfg.MaxTokens),
			Temperature: cfg.Temperature,
		})
		return p, noop, nil
	case "claude":
		p := claude.New(&claude.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.ChatModel,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   int64(cfg.MaxTokens),
			Temperature: cfg.Temperature,
		})
		return p, noop, nil
	case "gemini":
		p, err := gemini.New(ctx, &gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.ChatModel,
			MaxTokens:   int32(cfg.MaxTokens),
			Temperature: float32(cfg.Temperature),
		})
		if err != nil {
			return nil, noop, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildVectorBackend prefers pgvector and falls back to the in-memory
// store when requested or when PostgreSQL is unreachable.
func buildVectorBackend(cfg *config.Config, embedder vector.Embedder, memoryOnly bool) (vector.Searcher, vector.Store, func(), error) {
	noop := func() {}
	if memoryOnly {
		s := inmemory.NewInMemoryVectorStore(embedder)
		return s, s, noop, nil
	}

	pgStore, err := pg.NewPGVectorStore(cfg.PGVector, embedder)
	if err != nil {
		return nil, nil, noop, err
	}
	return pgStore, pgStore, func() { pgStore.Close() }, nil
}

func answer(ctx context.Context, engine *workflow.Engine, norm *normalize.Normalizer, sessionID, question string, hist []*message.Message) *workflow.Result {
	if norm != nil {
		for _, s := range norm.Explain(question) {
			fmt.Printf("[rewrite] %s -> %s\n", s.Term, s.Canonical)
		}
	}

	var result *workflow.Result
	if sessionID != "" {
		r, err := engine.Ask(ctx, sessionID, question)
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		result = r
	} else {
		result = engine.Run(ctx, question, hist)
	}

	fmt.Println(result.Answer)
	fmt.Printf("\n[confidence %.0f%%", result.Confidence*100)
	if len(result.Citations) > 0 {
		fmt.Printf(", citations: %s", strings.Join(result.Citations, ", "))
	}
	fmt.Println("]")
	return result
}

func repl(ctx context.Context, engine *workflow.Engine, norm *normalize.Normalizer, sessionID string) {
	fmt.Println("Trợ lý quy chế đào tạo HaUI. Gõ câu hỏi, hoặc 'exit' để thoát.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Local transcript for sessionless runs, so conversation-referencing
	// questions still work.
	var hist []*message.Message

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		result := answer(ctx, engine, norm, sessionID, line, hist)
		if sessionID == "" {
			hist = append(hist,
				message.NewMessage(message.RoleUser, line),
				message.NewMessage(message.RoleAssistant, result.Answer))
		}
		fmt.Println()
	}
}
