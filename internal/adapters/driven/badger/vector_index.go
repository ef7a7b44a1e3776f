package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force cosine index stored in BadgerDB.
//
// Chunks of a document are first written as staged keys; they become
// visible to Query and Count only once the document's commit marker is
// written. A failed batch removes whatever it staged.
type VectorIndex struct {
	backend    *Backend
	dimensions int
}

// NewVectorIndex creates an index over backend. A positive dimensions
// rejects vectors of any other length.
func NewVectorIndex(backend *Backend, dimensions int) *VectorIndex {
	return &VectorIndex{backend: backend, dimensions: dimensions}
}

// UpsertBatch replaces all chunks of documentID. Either every chunk
// becomes queryable or none does.
func (v *VectorIndex) UpsertBatch(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	if err := v.DeleteDocument(ctx, documentID); err != nil {
		return err
	}

	staged := make([][]byte, 0, len(chunks))
	err := v.stage(ctx, documentID, chunks, &staged)
	if err == nil && len(chunks) > 0 {
		err = v.backend.Update(func(txn *badger.Txn) error {
			return txn.Set(markerKey(documentID), []byte(chunks[0].SessionID))
		})
	}
	if err != nil {
		if cleanupErr := v.backend.deleteKeys(staged); cleanupErr != nil {
			v.backend.logger.Error("failed to remove staged chunks",
				"document_id", documentID, "keys", len(staged), "error", cleanupErr)
		}
		return fmt.Errorf("%w: %v", domain.ErrIndexFailed, err)
	}
	return nil
}

func (v *VectorIndex) stage(ctx context.Context, documentID string, chunks []*domain.Chunk, staged *[][]byte) error {
	wb := v.backend.db.NewWriteBatch()
	defer wb.Cancel()

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.DocumentID != documentID {
			return fmt.Errorf("chunk %s belongs to %s", c.ID, c.DocumentID)
		}
		if c.SessionID != chunks[0].SessionID {
			return fmt.Errorf("chunk %s spans sessions", c.ID)
		}
		if len(c.Embedding) == 0 || (v.dimensions > 0 && len(c.Embedding) != v.dimensions) {
			return fmt.Errorf("chunk %s has %d dimensions", c.ID, len(c.Embedding))
		}
		value, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode chunk %s: %w", c.ID, err)
		}
		key := chunkKey(c.SessionID, documentID, c.Ordinal)
		if err := wb.Set(key, value); err != nil {
			return err
		}
		*staged = append(*staged, key)
	}
	return wb.Flush()
}

// Query scans committed chunks matching filter and returns the topK by
// cosine similarity, ties broken by ordinal then document.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, filter domain.ChunkFilter, topK int) ([]*domain.RankedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	var results []*domain.RankedChunk
	err := v.scan(ctx, filter, func(c *domain.Chunk) {
		results = append(results, &domain.RankedChunk{Chunk: c, Score: cosine(vector, c.Embedding)})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexFailed, err)
	}

	slices.SortFunc(results, compareRanked)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of committed chunks matching filter.
func (v *VectorIndex) Count(ctx context.Context, filter domain.ChunkFilter) (int, error) {
	n := 0
	if err := v.scan(ctx, filter, func(*domain.Chunk) { n++ }); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrIndexFailed, err)
	}
	return n, nil
}

// DeleteDocument hides the document by dropping its marker, then removes its chunks.
func (v *VectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	var sessionID string
	err := v.backend.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(markerKey(documentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		sessionID = string(value)
		return txn.Delete(markerKey(documentID))
	})
	if err != nil {
		return fmt.Errorf("delete marker: %w", err)
	}
	if sessionID == "" {
		return nil
	}

	keys, err := v.backend.keysWithPrefix(documentChunkPrefix(sessionID, documentID))
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	if err := v.backend.deleteKeys(keys); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// HealthCheck fails once the database is closed.
func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	if v.backend.IsClosed() {
		return fmt.Errorf("%w: badger closed", domain.ErrServiceUnavailable)
	}
	return nil
}

// scan calls fn for each committed chunk matching filter.
func (v *VectorIndex) scan(ctx context.Context, filter domain.ChunkFilter, fn func(*domain.Chunk)) error {
	return v.backend.View(func(txn *badger.Txn) error {
		committed, err := committedDocuments(txn)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = sessionChunkPrefix(filter.SessionID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var c domain.Chunk
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return fmt.Errorf("decode chunk: %w", err)
			}
			if committed[c.DocumentID] != c.SessionID || !filter.Matches(&c) {
				continue
			}
			fn(&c)
		}
		return nil
	})
}

// committedDocuments maps document ID to session ID for every committed document.
func committedDocuments(txn *badger.Txn) (map[string]string, error) {
	committed := make(map[string]string)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(markerPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		committed[string(item.Key()[len(markerPrefix):])] = string(value)
	}
	return committed, nil
}

func compareRanked(a, b *domain.RankedChunk) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.Chunk.Ordinal != b.Chunk.Ordinal:
		return a.Chunk.Ordinal - b.Chunk.Ordinal
	case a.Chunk.DocumentID < b.Chunk.DocumentID:
		return -1
	case a.Chunk.DocumentID > b.Chunk.DocumentID:
		return 1
	}
	return 0
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
