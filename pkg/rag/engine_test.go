package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-realtime-relay/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns canned vectors per exact input text.
type fakeProvider struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	blocking bool // block until the context is done
	calls    int
}

func (f *fakeProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return f.fallback, nil
}

func newTestEngine(t *testing.T, provider *fakeProvider, opts Options) *Engine {
	t.Helper()
	engine, err := NewEngine(NewDocumentStore(), provider, opts, logger.NewNoopLogger())
	require.NoError(t, err)
	return engine
}

func TestEngineIngestAndQuery(t *testing.T) {
	doc := "Paris has the Eiffel Tower."
	query := "What is in Paris?"

	provider := &fakeProvider{vectors: map[string][]float32{
		doc:   {0.9, 0.2, 0.1},
		query: {0.8, 0.3, 0.2},
	}}
	engine := newTestEngine(t, provider, DefaultOptions())

	count, err := engine.Ingest(context.Background(), "doc1", "text/plain", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results := engine.QueryContext(context.Background(), query)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].Source)
	assert.Equal(t, doc, results[0].Text)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestEngineQueryEmptyStore(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	engine := newTestEngine(t, provider, DefaultOptions())

	results := engine.QueryContext(context.Background(), "anything")
	assert.Empty(t, results)
}

func TestEngineQueryProviderFailureDegrades(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exhausted")}
	engine := newTestEngine(t, provider, DefaultOptions())

	// Failure must come back as "no context", never as an error or panic.
	results := engine.QueryContext(context.Background(), "anything")
	assert.Empty(t, results)
}

func TestEngineQueryEmbeddingTimeout(t *testing.T) {
	provider := &fakeProvider{blocking: true}
	opts := DefaultOptions()
	opts.EmbedTimeout = 25 * time.Millisecond
	engine := newTestEngine(t, provider, opts)

	start := time.Now()
	results := engine.QueryContext(context.Background(), "anything")
	assert.Empty(t, results)
	assert.Less(t, time.Since(start), 2*time.Second, "timeout should cut the embedding call short")
}

func TestEngineIngestUnsupportedMime(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	engine := newTestEngine(t, provider, DefaultOptions())

	_, err := engine.Ingest(context.Background(), "pic", "image/png", []byte{0x89, 0x50})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Empty(t, engine.List())
}

func TestEngineIngestEmbedFailureRollsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("backend down")}
	engine := newTestEngine(t, provider, DefaultOptions())

	_, err := engine.Ingest(context.Background(), "doc", "text/plain", []byte("some text"))
	require.Error(t, err)

	var ingErr *IngestionError
	assert.ErrorAs(t, err, &ingErr)
	assert.Empty(t, engine.List(), "failed ingestion must leave nothing behind")
}

func TestEngineIngestChunkedVariant(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	opts := DefaultOptions()
	opts.Chunked = true
	opts.ChunkSize = 100
	opts.ChunkOverlap = 20
	engine := newTestEngine(t, provider, opts)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	count, err := engine.Ingest(context.Background(), "doc", "text/plain", []byte(text))
	require.NoError(t, err)
	assert.Greater(t, count, 1)

	infos := engine.List()
	require.Len(t, infos, 1)
	assert.Equal(t, count, infos[0].Units)
}

func TestEngineIngestChunkedFailureRollsBack(t *testing.T) {
	// First call succeeds, second fails: no partial document may be stored.
	provider := &fakeProvider{fallback: []float32{1, 0}}
	opts := DefaultOptions()
	opts.Chunked = true
	opts.ChunkSize = 100
	opts.ChunkOverlap = 20
	engine := newTestEngine(t, provider, opts)

	failing := &flakyProvider{okCalls: 1}
	engine.provider = failing

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	_, err := engine.Ingest(context.Background(), "doc", "text/plain", []byte(text))
	require.Error(t, err)
	assert.Empty(t, engine.List())
}

type flakyProvider struct {
	okCalls int
	calls   int
}

func (f *flakyProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls > f.okCalls {
		return nil, errors.New("flaky backend")
	}
	return []float32{1, 0}, nil
}

func TestEngineIngestPDFBestEffort(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	engine := newTestEngine(t, provider, DefaultOptions())

	data := append([]byte{0x00, 0x01}, []byte("readable words inside the pdf")...)
	count, err := engine.Ingest(context.Background(), "doc.pdf", "application/pdf", data)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngineRemoveIdempotent(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	engine := newTestEngine(t, provider, DefaultOptions())

	_, err := engine.Ingest(context.Background(), "doc", "text/plain", []byte("text"))
	require.NoError(t, err)

	engine.Remove("doc")
	assert.Empty(t, engine.List())
	engine.Remove("doc") // second time is still fine
	engine.Remove("never-there")
}

func TestNewEngineRejectsBadOverlap(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 100
	opts.ChunkOverlap = 100

	_, err := NewEngine(NewDocumentStore(), &fakeProvider{}, opts, logger.NewNoopLogger())
	assert.Error(t, err)
}
