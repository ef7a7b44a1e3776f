package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
)

func newTestIndex(t *testing.T) (*VectorIndex, *Backend) {
	t.Helper()
	backend, err := OpenBackend("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewVectorIndex(backend, 3), backend
}

func testChunk(sessionID, documentID string, ordinal int, embedding ...float32) *domain.Chunk {
	return &domain.Chunk{
		ID:         domain.ChunkID(documentID, ordinal),
		DocumentID: documentID,
		SessionID:  sessionID,
		Ordinal:    ordinal,
		Text:       "text",
		Embedding:  embedding,
	}
}

func TestOpenBackend_FileSystem(t *testing.T) {
	backend, err := OpenBackend(t.TempDir(), nil)
	require.NoError(t, err)
	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestVectorIndex_QueryOrdersByScore(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.UpsertBatch(ctx, "doc-1", []*domain.Chunk{
		testChunk("s1", "doc-1", 0, 0, 1, 0),
		testChunk("s1", "doc-1", 1, 1, 0, 0),
		testChunk("s1", "doc-1", 2, 1, 1, 0),
	}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, domain.ChunkFilter{SessionID: "s1"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Chunk.Ordinal)
	assert.Equal(t, 2, results[1].Chunk.Ordinal)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestVectorIndex_TiesBrokenByOrdinalThenDocument(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.UpsertBatch(ctx, "doc-b", []*domain.Chunk{testChunk("s1", "doc-b", 0, 1, 0, 0)}))
	require.NoError(t, idx.UpsertBatch(ctx, "doc-a", []*domain.Chunk{
		testChunk("s1", "doc-a", 0, 1, 0, 0),
		testChunk("s1", "doc-a", 1, 1, 0, 0),
	}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, domain.ChunkFilter{SessionID: "s1"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc-a", results[0].Chunk.DocumentID)
	assert.Equal(t, "doc-b", results[1].Chunk.DocumentID)
	assert.Equal(t, 1, results[2].Chunk.Ordinal)
}

func TestVectorIndex_SessionIsolation(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.UpsertBatch(ctx, "doc-1", []*domain.Chunk{testChunk("s1", "doc-1", 0, 1, 0, 0)}))
	require.NoError(t, idx.UpsertBatch(ctx, "doc-2", []*domain.Chunk{testChunk("s2", "doc-2", 0, 1, 0, 0)}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, domain.ChunkFilter{SessionID: "s2"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s2", results[0].Chunk.SessionID)

	n, err := idx.Count(ctx, domain.ChunkFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestVectorIndex_FailedBatchLeavesNothing(t *testing.T) {
	idx, backend := newTestIndex(t)
	ctx := context.Background()

	err := idx.UpsertBatch(ctx, "doc-1", []*domain.Chunk{
		testChunk("s1", "doc-1", 0, 1, 0, 0),
		testChunk("s1", "doc-1", 1, 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrIndexFailed)

	n, err := idx.Count(ctx, domain.ChunkFilter{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Zero(t, n)

	keys, err := backend.keysWithPrefix([]byte(chunkPrefix))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestVectorIndex_UpsertReplaces(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.UpsertBatch(ctx, "doc-1", []*domain.Chunk{
		testChunk("s1", "doc-1", 0, 1, 0, 0),
		testChunk("s1", "doc-1", 1, 1, 0, 0),
	}))
	require.NoError(t, idx.UpsertBatch(ctx, "doc-1", []*domain.Chunk{testChunk("s1", "doc-1", 0, 0, 1, 0)}))

	n, err := idx.Count(ctx, domain.ChunkFilter{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorIndex_DeleteDocument(t *testing.T) {
	idx, backend := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.UpsertBatch(ctx, "doc-1", []*domain.Chunk{testChunk("s1", "doc-1", 0, 1, 0, 0)}))
	require.NoError(t, idx.DeleteDocument(ctx, "doc-1"))
	require.NoError(t, idx.DeleteDocument(ctx, "missing"))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, domain.ChunkFilter{SessionID: "s1"}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	keys, err := backend.keysWithPrefix([]byte(chunkPrefix))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestVectorIndex_HealthCheck(t *testing.T) {
	idx, backend := newTestIndex(t)
	assert.NoError(t, idx.HealthCheck(context.Background()))

	require.NoError(t, backend.Close())
	assert.ErrorIs(t, idx.HealthCheck(context.Background()), domain.ErrServiceUnavailable)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{2, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float32{1}, []float32{1, 0}))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 0}))
}
