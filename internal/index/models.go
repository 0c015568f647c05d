// Package index provides the semantic document index: an exact
// nearest-neighbor vector index paired with an ordered document table.
package index

import (
	"context"
	"errors"
)

// Sentinel errors for index operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Embedder generates vector embeddings from text.
//
// Implementations must return L2-normalized vectors so that squared L2
// distance in the index behaves monotonically like cosine distance.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Document is a stored document and its metadata.
//
// Documents are immutable once stored; an update is modeled as
// delete followed by re-add. Re-adding an existing ID overwrites.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Text is the document content.
	Text string

	// Metadata contains additional key-value pairs for the caller.
	Metadata map[string]interface{}

	// Embedding is the document vector. Kept in memory so the index can
	// be rebuilt after a delete; excluded from the persisted document file.
	Embedding []float32
}

// SearchResult pairs a document with its distance to the query.
//
// Distance is squared L2; lower is more relevant. No probability
// semantics are imposed, callers interpret the raw distance.
type SearchResult struct {
	Document Document
	Distance float32
}
