// Package vectorstore provides the embedded vector index over the
// assessment catalog.
package vectorstore

import (
	"context"
	"errors"

	"github.com/talentsift/recommendd/internal/catalog"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyCatalog indicates an indexing attempt with no assessments.
	ErrEmptyCatalog = errors.New("no assessments to index")

	// ErrIndexInProgress is returned when a reindex is already running.
	// Reindexing must never run concurrently with itself.
	ErrIndexInProgress = errors.New("index rebuild already in progress")
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the read side of the index, consumed by the recommendation
// pipeline. Results are ordered by similarity score descending.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]catalog.Candidate, error)
}

// Indexer is the write side of the index.
type Indexer interface {
	// Index replaces the collection contents with the given assessments
	// and returns the number indexed.
	Index(ctx context.Context, assessments []catalog.Assessment) (int, error)
}
