package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// VectorIndex is the similarity-search index over embedded chunks.
type VectorIndex interface {
	// UpsertBatch indexes every chunk of one document as a single logical batch.
	// Either all chunks become queryable or none do.
	UpsertBatch(ctx context.Context, documentID string, chunks []*domain.Chunk) error

	// Query returns up to topK chunks most similar to vector that satisfy the filter,
	// by descending score.
	Query(ctx context.Context, vector []float32, filter domain.ChunkFilter, topK int) ([]*domain.RankedChunk, error)

	// DeleteDocument removes every chunk of a document
	DeleteDocument(ctx context.Context, documentID string) error

	// Count returns the number of queryable chunks matching the filter
	Count(ctx context.Context, filter domain.ChunkFilter) (int, error)

	// HealthCheck verifies the index is available
	HealthCheck(ctx context.Context) error
}
