package driven

import (
	"context"
)

// EmbeddingService maps text to fixed-dimension vectors.
// Ingestion and retrieval must use the same model so vectors are comparable.
type EmbeddingService interface {
	// Embed generates one embedding per text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a retrieval query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
