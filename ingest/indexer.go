package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/pkg/logging"
	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/vector"
)

// embedBatchSize bounds one embedding API call.
const embedBatchSize = 64

// Indexer embeds regulation chunks and writes them into a vector store.
type Indexer struct {
	embedder vector.Embedder
	store    vector.Store
	chunker  *Chunker
	logger   *slog.Logger
}

// NewIndexer wires an embedder and a store behind the default chunker.
func NewIndexer(embedder vector.Embedder, store vector.Store) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		chunker:  NewChunker(defaultChunkSize, defaultOverlap),
		logger:   logging.WithComponent("ingest"),
	}
}

// IndexFile loads, chunks, embeds and stores one document. It returns
// the number of chunks indexed.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	return ix.IndexDocument(ctx, doc)
}

// IndexDocument chunks and stores an already-loaded document.
func (ix *Indexer) IndexDocument(ctx context.Context, doc Document) (int, error) {
	chunks := ix.chunker.Split(doc)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %q produced no chunks", doc.Source)
	}

	indexed := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return indexed, fmt.Errorf("expected %d vectors, got %d", len(batch), len(vectors))
		}

		for i, chunk := range batch {
			emb := &vector.Embedding{
				ID:     fmt.Sprintf("%s-%d", doc.Source, start+i),
				Vector: vectors[i],
				Text:   chunk.Content,
				Metadata: map[string]any{
					"source":   chunk.Source,
					"doc_type": chunk.DocType,
				},
			}
			if err := ix.store.AddEmbedding(ctx, emb); err != nil {
				return indexed, fmt.Errorf("store chunk %s: %w", emb.ID, err)
			}
			indexed++
		}
	}

	ix.logger.Info("document indexed",
		slog.String("source", doc.Source),
		slog.Int("chunks", indexed))
	return indexed, nil
}
