package config

import (
	"os"
	"strconv"

	apperrors "github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/errors"
)

// ModelConfig holds LLM provider settings.
type ModelConfig struct {
	Provider    string // openai | claude | gemini
	APIKey      string
	BaseURL     string
	ChatModel   string
	Temperature float64
	MaxTokens   int

	EmbeddingModel     string
	EmbeddingDimension int
}

// AgentConfig tunes the workflow behaviour.
type AgentConfig struct {
	TopK                   int
	MaxQueryReformulations int
	EnableMultiQuery       bool
	EnableQueryExpansion   bool
	EnableChainOfThought   bool
	EnableValidation       bool
	RequireCitations       bool
	MinConfidenceScore     float64
	MaxRetries             int
	StepBudget             int
}

// MongoConfig holds conversation store settings.
type MongoConfig struct {
	URI                string
	Database           string
	SessionsCollection string
	MessagesCollection string
}

// PGVectorConfig holds the pgvector search backend settings.
type PGVectorConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int
	TableName string
}

// Config aggregates every subsystem configuration.
type Config struct {
	Model    ModelConfig
	Agent    AgentConfig
	Mongo    MongoConfig
	PGVector PGVectorConfig
}

// Load reads configuration from the environment, applying defaults that
// match the shipped deployment. Validation failures abort startup.
func Load() (*Config, error) {
	cfg := &Config{
		Model: ModelConfig{
			Provider:           envOr("HAUIRAG_LLM_PROVIDER", "openai"),
			APIKey:             os.Getenv("OPENAI_API_KEY"),
			BaseURL:            os.Getenv("OPENAI_BASE_URL"),
			ChatModel:          envOr("HAUIRAG_CHAT_MODEL", "gpt-4o-mini"),
			Temperature:        envFloat("HAUIRAG_TEMPERATURE", 0.7),
			MaxTokens:          envInt("HAUIRAG_MAX_TOKENS", 2000),
			EmbeddingModel:     envOr("HAUIRAG_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: envInt("HAUIRAG_EMBEDDING_DIMENSION", 1536),
		},
		Agent: AgentConfig{
			TopK:                   envInt("HAUIRAG_TOP_K", 10),
			MaxQueryReformulations: envInt("HAUIRAG_MAX_REFORMULATIONS", 3),
			EnableMultiQuery:       envBool("HAUIRAG_MULTI_QUERY", true),
			EnableQueryExpansion:   envBool("HAUIRAG_QUERY_EXPANSION", true),
			EnableChainOfThought:   envBool("HAUIRAG_CHAIN_OF_THOUGHT", true),
			EnableValidation:       envBool("HAUIRAG_ANSWER_VALIDATION", true),
			RequireCitations:       envBool("HAUIRAG_REQUIRE_CITATIONS", true),
			MinConfidenceScore:     envFloat("HAUIRAG_MIN_CONFIDENCE", 0.5),
			MaxRetries:             envInt("HAUIRAG_MAX_RETRIES", 1),
			StepBudget:             envInt("HAUIRAG_STEP_BUDGET", 50),
		},
		Mongo: MongoConfig{
			URI:                envOr("MONGODB_URI", "mongodb://localhost:27017"),
			Database:           envOr("MONGODB_DATABASE", "hauirag"),
			SessionsCollection: envOr("MONGODB_SESSIONS_COLLECTION", "sessions"),
			MessagesCollection: envOr("MONGODB_MESSAGES_COLLECTION", "messages"),
		},
		PGVector: PGVectorConfig{
			Host:      envOr("PGVECTOR_HOST", "127.0.0.1"),
			Port:      envInt("PGVECTOR_PORT", 5432),
			User:      envOr("PGVECTOR_USER", "postgres"),
			Password:  os.Getenv("PGVECTOR_PASSWORD"),
			DBName:    envOr("PGVECTOR_DBNAME", "hauirag"),
			SSLMode:   envOr("PGVECTOR_SSLMODE", "disable"),
			Dimension: envInt("PGVECTOR_DIMENSION", 1536),
			TableName: envOr("PGVECTOR_TABLE", "regulation_chunks"),
		},
	}

	if err := ValidateLLMConfig(cfg.Model.APIKey, cfg.Model.ChatModel, cfg.Model.Temperature, cfg.Model.MaxTokens); err != nil {
		return nil, apperrors.Configuration("model", err)
	}
	if err := ValidateAgentConfig(cfg.Agent.TopK, cfg.Agent.MaxRetries, cfg.Agent.MaxQueryReformulations,
		cfg.Agent.StepBudget, cfg.Agent.MinConfidenceScore); err != nil {
		return nil, apperrors.Configuration("agent", err)
	}
	if err := ValidateMongoDBConfig(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.MessagesCollection); err != nil {
		return nil, apperrors.Configuration("mongo", err)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
