package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex on the pgvector extension.
// A document's chunks are written in one transaction, so a query sees all
// of them or none.
type VectorIndex struct {
	db *DB
}

// NewVectorIndex creates a new pgvector-backed index.
// Call DB.InitVectorSchema first.
func NewVectorIndex(db *DB) *VectorIndex {
	return &VectorIndex{db: db}
}

// UpsertBatch replaces all chunks of documentID atomically.
func (v *VectorIndex) UpsertBatch(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	err := v.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = $1", documentID); err != nil {
			return fmt.Errorf("clear chunks: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, session_id, ordinal, content, embedding,
			                    page, section, start_offset, end_offset, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, c := range chunks {
			if c.DocumentID != documentID {
				return fmt.Errorf("%w: chunk %s belongs to %s", domain.ErrInvalidInput, c.ID, c.DocumentID)
			}
			created := c.CreatedAt
			if created.IsZero() {
				created = now
			}
			_, err := stmt.ExecContext(ctx,
				c.ID, c.DocumentID, c.SessionID, c.Ordinal, c.Text, pgvector.NewVector(c.Embedding),
				c.Page, c.Section, c.StartOffset, c.EndOffset, created,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexFailed, err)
	}
	return nil
}

// Query returns the topK chunks by cosine similarity, ties broken by ordinal then document.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, filter domain.ChunkFilter, topK int) ([]*domain.RankedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	query := `
		SELECT id, document_id, session_id, ordinal, content, page, section,
		       start_offset, end_offset, created_at,
		       1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE ($2::text = '' OR session_id = $2)
		  AND ($3::text = '' OR document_id = $3)
		ORDER BY embedding <=> $1, ordinal, document_id
		LIMIT $4
	`
	rows, err := v.db.QueryContext(ctx, query, pgvector.NewVector(vector), filter.SessionID, filter.DocumentID, topK)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var results []*domain.RankedChunk
	for rows.Next() {
		var c domain.Chunk
		var score float64
		if err := rows.Scan(
			&c.ID, &c.DocumentID, &c.SessionID, &c.Ordinal, &c.Text, &c.Page, &c.Section,
			&c.StartOffset, &c.EndOffset, &c.CreatedAt, &score,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		results = append(results, &domain.RankedChunk{Chunk: &c, Score: score})
	}
	return results, rows.Err()
}

// DeleteDocument removes all chunks of a document
func (v *VectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := v.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Count returns the number of chunks matching filter
func (v *VectorIndex) Count(ctx context.Context, filter domain.ChunkFilter) (int, error) {
	var n int
	err := v.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks
		WHERE ($1::text = '' OR session_id = $1)
		  AND ($2::text = '' OR document_id = $2)
	`, filter.SessionID, filter.DocumentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// HealthCheck verifies the database answers
func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	return v.db.Ping(ctx)
}
