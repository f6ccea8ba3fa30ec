package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/config"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
	_ "github.com/lib/pq"
)

// PGVectorStore implements vector.Store and vector.Searcher using
// PostgreSQL with the pgvector extension. Search distances are converted
// to larger-is-better similarity scores before results leave this adapter.
type PGVectorStore struct {
	db        *sql.DB
	embedder  vector.Embedder
	dimension int
	tableName string
}

// NewPGVectorStore connects to PostgreSQL and prepares the chunk table.
func NewPGVectorStore(cfg config.PGVectorConfig, embedder vector.Embedder) (*PGVectorStore, error) {
	if err := config.ValidatePGVectorConfig(cfg.Host, cfg.Port, cfg.User, cfg.Password,
		cfg.DBName, cfg.SSLMode, cfg.Dimension, cfg.TableName); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PGVectorStore{
		db:        db,
		embedder:  embedder,
		dimension: cfg.Dimension,
		tableName: cfg.TableName,
	}

	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}
	return store, nil
}

func (s *PGVectorStore) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		content TEXT NOT NULL,
		doc_type VARCHAR(255) NOT NULL DEFAULT '',
		metadata JSONB,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// AddEmbedding adds a new embedding to the store
func (s *PGVectorStore) AddEmbedding(ctx context.Context, embedding *vector.Embedding) error {
	if embedding == nil {
		return fmt.Errorf("embedding cannot be nil")
	}
	if embedding.ID == "" {
		return fmt.Errorf("embedding ID cannot be empty")
	}
	if len(embedding.Vector) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding.Vector))
	}

	docType, _ := embedding.Metadata["doc_type"].(string)
	metadata, err := json.Marshal(embedding.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, content, doc_type, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5::vector)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		doc_type = EXCLUDED.doc_type,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query, embedding.ID, embedding.Text, docType, metadata, vectorToString(embedding.Vector))
	if err != nil {
		return fmt.Errorf("failed to add embedding: %w", err)
	}
	return nil
}

// Search embeds the query and returns the k nearest chunks. The cosine
// distance reported by pgvector is mapped to a similarity in (0, 1].
func (s *PGVectorStore) Search(ctx context.Context, query string, k int) ([]vector.SearchResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder is required for search")
	}
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", s.dimension, len(queryVector))
	}
	if k <= 0 {
		k = 10
	}

	searchSQL := fmt.Sprintf(`
	SELECT content, doc_type, metadata, embedding <=> $1::vector AS distance
	FROM %s
	ORDER BY distance
	LIMIT $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, searchSQL, vectorToString(queryVector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	results := make([]vector.SearchResult, 0, k)
	for rows.Next() {
		var content, docType string
		var rawMetadata []byte
		var distance float64

		if err := rows.Scan(&content, &docType, &rawMetadata, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		var metadata map[string]any
		if len(rawMetadata) > 0 {
			if err := json.Unmarshal(rawMetadata, &metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
		}

		results = append(results, vector.SearchResult{
			Content:  content,
			Metadata: metadata,
			Score:    vector.SimilarityFromDistance(distance),
			DocType:  docType,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// Clear removes all embeddings
func (s *PGVectorStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", s.tableName))
	if err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	return nil
}

// Count returns the number of embeddings
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *PGVectorStore) Close() error {
	return s.db.Close()
}

// vectorToString renders the vector in pgvector literal format: [1,2,3]
func vectorToString(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
