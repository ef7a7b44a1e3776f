package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	hashes    map[string]string // content hash -> document ID
	order     []string

	// SaveErr, when set, is returned by Save
	SaveErr error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
		hashes:    make(map[string]string),
	}
}

func (m *MockDocumentStore) RegisterHash(ctx context.Context, contentHash, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.hashes[contentHash]; exists {
		return domain.ErrDuplicateDocument
	}
	m.hashes[contentHash] = documentID
	return nil
}

func (m *MockDocumentStore) ReleaseHash(ctx context.Context, contentHash, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[contentHash] == documentID {
		delete(m.hashes, contentHash)
	}
	return nil
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, exists := m.documents[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MockDocumentStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Document
	for _, id := range m.order {
		if doc := m.documents[id]; doc.SessionID == sessionID {
			cp := *doc
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Helper methods for testing

// HashCount returns the number of registered content hashes
func (m *MockDocumentStore) HashCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hashes)
}
