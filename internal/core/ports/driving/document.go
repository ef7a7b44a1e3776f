package driving

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// IngestionService accepts uploads and tracks their background ingestion
type IngestionService interface {
	// Submit validates the upload, claims its content hash and schedules ingestion.
	// Returns domain.ErrDuplicateDocument if identical bytes were already accepted.
	Submit(ctx context.Context, req SubmitRequest) (*domain.IngestionJob, error)

	// GetJob retrieves an ingestion job by ID
	GetJob(ctx context.Context, id string) (*domain.IngestionJob, error)
}

// SubmitRequest is one uploaded file
type SubmitRequest struct {
	SessionID string
	Filename  string
	Data      []byte
}

// DocumentService provides read-only access to ingested documents
type DocumentService interface {
	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// ListBySession lists the documents ingested into a session
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error)
}

// EvaluationService generates question/answer pairs for offline RAG evaluation
type EvaluationService interface {
	// GenerateQA generates up to n QA pairs from a document's parsed text
	GenerateQA(ctx context.Context, documentID string, n int) ([]domain.QAPair, error)
}
