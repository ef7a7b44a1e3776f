package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/runtime"
)

// Retriever finds the chunks of a session most similar to a query.
type Retriever struct {
	index    driven.VectorIndex
	services *runtime.Services
	topK     int
}

// NewRetriever creates a Retriever. defaultTopK applies when Retrieve is called with topK <= 0.
func NewRetriever(index driven.VectorIndex, services *runtime.Services, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = domain.DefaultRAGConfig().TopK
	}
	return &Retriever{index: index, services: services, topK: defaultTopK}
}

// Retrieve embeds the query and returns at most topK chunks of sessionID,
// by descending score with ties broken by ordinal then document ID.
func (r *Retriever) Retrieve(ctx context.Context, query, sessionID string, topK int) ([]*domain.RankedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = r.topK
	}

	embedder := r.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingFailed)
	}

	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, classify(domain.ErrEmbeddingFailed, err)
	}

	filter := domain.ChunkFilter{SessionID: sessionID}
	results, err := r.index.Query(ctx, vector, filter, topK)
	if err != nil {
		return nil, classify(domain.ErrIndexFailed, err)
	}

	// The backend applies the filter too; never trust it with isolation.
	ranked := make([]*domain.RankedChunk, 0, len(results))
	for _, rc := range results {
		if rc != nil && filter.Matches(rc.Chunk) {
			ranked = append(ranked, rc)
		}
	}
	SortRanked(ranked)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// SortRanked orders chunks by descending score, then ordinal, then document ID.
func SortRanked(ranked []*domain.RankedChunk) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.Ordinal != b.Chunk.Ordinal {
			return a.Chunk.Ordinal < b.Chunk.Ordinal
		}
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	})
}
