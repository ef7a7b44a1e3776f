package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockVectorIndex is an in-memory VectorIndex using cosine similarity.
type MockVectorIndex struct {
	mu     sync.RWMutex
	chunks map[string][]*domain.Chunk // document ID -> chunks

	// UpsertErr, when set, makes UpsertBatch fail without indexing anything
	UpsertErr error

	// QueryFn overrides Query when set
	QueryFn func(vector []float32, filter domain.ChunkFilter, topK int) ([]*domain.RankedChunk, error)
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		chunks: make(map[string][]*domain.Chunk),
	}
}

func (m *MockVectorIndex) UpsertBatch(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.chunks[documentID] = append([]*domain.Chunk(nil), chunks...)
	return nil
}

func (m *MockVectorIndex) Query(ctx context.Context, vector []float32, filter domain.ChunkFilter, topK int) ([]*domain.RankedChunk, error) {
	if m.QueryFn != nil {
		return m.QueryFn(vector, filter, topK)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var ranked []*domain.RankedChunk
	for _, chunks := range m.chunks {
		for _, c := range chunks {
			if !filter.Matches(c) {
				continue
			}
			ranked = append(ranked, &domain.RankedChunk{Chunk: c, Score: cosine(vector, c.Embedding)})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

func (m *MockVectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, documentID)
	return nil
}

func (m *MockVectorIndex) Count(ctx context.Context, filter domain.ChunkFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, chunks := range m.chunks {
		for _, c := range chunks {
			if filter.Matches(c) {
				n++
			}
		}
	}
	return n, nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Chunks returns the indexed chunks of a document
func (m *MockVectorIndex) Chunks(documentID string) []*domain.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chunks[documentID]
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
