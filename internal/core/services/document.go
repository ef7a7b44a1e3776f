package services

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documentStore driven.DocumentStore) driving.DocumentService {
	return &documentService{documentStore: documentStore}
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// ListBySession lists the documents ingested into a session
func (s *documentService) ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	return s.documentStore.ListBySession(ctx, sessionID)
}
