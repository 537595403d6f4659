package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-realtime-relay/internal/pkg/logger"
	"ai-realtime-relay/pkg/embedding"
	"ai-realtime-relay/pkg/utils"
)

// ContextResult is the public shape handed to the relay: one piece of
// retrieved context for a user query.
type ContextResult struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// Options tunes retrieval and ingestion.
type Options struct {
	TopK         int
	MinScore     float64
	ChunkSize    int
	ChunkOverlap int
	Chunked      bool // one embedding per chunk instead of per document
	EmbedTimeout time.Duration
}

// DefaultOptions mirrors the upstream relay defaults.
func DefaultOptions() Options {
	return Options{
		TopK:         1,
		MinScore:     0.1,
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Chunked:      false,
		EmbedTimeout: 30 * time.Second,
	}
}

// Engine orchestrates the DocumentStore and the embedding provider.
type Engine struct {
	store    *DocumentStore
	provider embedding.Provider
	opts     Options
	logger   logger.ILogger
}

func NewEngine(store *DocumentStore, provider embedding.Provider, opts Options, log logger.ILogger) (*Engine, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = DefaultOptions().EmbedTimeout
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", opts.ChunkOverlap, opts.ChunkSize)
	}

	return &Engine{
		store:    store,
		provider: provider,
		opts:     opts,
		logger:   log,
	}, nil
}

// QueryContext returns the stored texts most relevant to the query. Failures
// (embedding timeout, provider errors) are logged and degrade to an empty
// result — callers cannot distinguish "no context" from "retrieval failed",
// and the conversation simply continues without augmentation.
func (e *Engine) QueryContext(ctx context.Context, query string) []ContextResult {
	queryEmbedding, err := e.embed(ctx, query)
	if err != nil {
		e.logger.Warn("RAG", "Context query degraded to empty result", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	results := e.store.SimilaritySearch(queryEmbedding, e.opts.TopK, e.opts.MinScore)
	out := make([]ContextResult, len(results))
	for i, r := range results {
		out[i] = ContextResult{Source: r.Source, Text: r.Text, Score: r.Score}
	}
	return out
}

// Ingest extracts text from the uploaded bytes, embeds it and stores the
// result. It returns the number of stored units. All embeddings are computed
// before anything is written, so a failure leaves no partial document behind.
func (e *Engine) Ingest(ctx context.Context, name string, mimeType string, data []byte) (int, error) {
	text, err := extractText(mimeType, data)
	if err != nil {
		return 0, err
	}

	if !e.opts.Chunked {
		emb, err := e.embed(ctx, text)
		if err != nil {
			return 0, &IngestionError{Name: name, Err: err}
		}
		if err := e.store.Put(name, text, emb); err != nil {
			return 0, &IngestionError{Name: name, Err: err}
		}
		e.logger.Info("RAG", "Document ingested", map[string]interface{}{
			"name": name, "bytes": len(text), "units": 1,
		})
		return 1, nil
	}

	chunks, err := utils.SplitText(text, e.opts.ChunkSize, e.opts.ChunkOverlap)
	if err != nil {
		return 0, &IngestionError{Name: name, Err: err}
	}

	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		emb, err := e.embed(ctx, chunk)
		if err != nil {
			return 0, &IngestionError{Name: name, Err: fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)}
		}
		embeddings[i] = emb
	}

	if err := e.store.PutChunks(name, chunks, embeddings); err != nil {
		return 0, &IngestionError{Name: name, Err: err}
	}
	e.logger.Info("RAG", "Document ingested", map[string]interface{}{
		"name": name, "bytes": len(text), "units": len(chunks),
	})
	return len(chunks), nil
}

// Remove deletes a document. Removing an unknown name succeeds silently.
func (e *Engine) Remove(name string) {
	e.store.Delete(name)
	e.logger.Info("RAG", "Document removed", map[string]interface{}{"name": name})
}

// List returns the stored documents.
func (e *Engine) List() []DocumentInfo {
	return e.store.List()
}

// embed races the provider call against the configured deadline.
func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, e.opts.EmbedTimeout)
	defer cancel()

	emb, err := e.provider.Generate(embedCtx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(embedCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrEmbeddingTimeout
		}
		return nil, err
	}
	return emb, nil
}
