package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents and the content-hash registry in memory.
type DocumentStore struct {
	mu        sync.RWMutex
	hashes    map[string]string
	documents map[string]*domain.Document
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		hashes:    make(map[string]string),
		documents: make(map[string]*domain.Document),
	}
}

// RegisterHash is an atomic check-and-set on the hash registry.
func (s *DocumentStore) RegisterHash(ctx context.Context, contentHash, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hashes[contentHash]; exists {
		return domain.ErrDuplicateDocument
	}
	s.hashes[contentHash] = documentID
	return nil
}

func (s *DocumentStore) ReleaseHash(ctx context.Context, contentHash, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[contentHash] == documentID {
		delete(s.hashes, contentHash)
	}
	return nil
}

func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *doc
	s.documents[doc.ID] = &c
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *doc
	return &c, nil
}

// ListBySession returns the session's documents in upload order without parsed text.
func (s *DocumentStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*domain.Document
	for _, doc := range s.documents {
		if doc.SessionID == sessionID {
			c := *doc
			c.ParsedText = ""
			list = append(list, &c)
		}
	}
	slices.SortFunc(list, func(a, b *domain.Document) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return list, nil
}
