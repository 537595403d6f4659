package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMediaType is returned by Ingest for mime types the
	// extractor cannot handle.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrEmbeddingTimeout marks an embedding call that exceeded its deadline.
	ErrEmbeddingTimeout = errors.New("embedding generation timed out")
)

// IngestionError wraps any failure during document ingestion. Nothing is
// stored when one is returned.
type IngestionError struct {
	Name string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for %q: %v", e.Name, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
