package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// DocumentStore handles document persistence and the content-hash registry (PostgreSQL)
type DocumentStore interface {
	// RegisterHash atomically claims a content hash for a document.
	// Returns domain.ErrDuplicateDocument if the hash is already registered.
	RegisterHash(ctx context.Context, contentHash, documentID string) error

	// ReleaseHash drops a registration, but only while documentID still owns it.
	// Used when an upload is refused after its hash was claimed.
	ReleaseHash(ctx context.Context, contentHash, documentID string) error

	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// ListBySession returns the documents ingested into a session, oldest first
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error)
}
