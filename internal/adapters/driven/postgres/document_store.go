package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
// The content-hash registry is a primary-key table so concurrent
// registrations of the same bytes race inside the database.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// RegisterHash records contentHash as owned by documentID.
// Returns ErrDuplicateDocument if the hash was already registered.
func (s *DocumentStore) RegisterHash(ctx context.Context, contentHash, documentID string) error {
	query := `
		INSERT INTO document_hashes (content_hash, document_id)
		VALUES ($1, $2)
		ON CONFLICT (content_hash) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, contentHash, documentID)
	if err != nil {
		return fmt.Errorf("%w: register hash: %v", domain.ErrDurableStoreUnavailable, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("register hash: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateDocument
	}
	return nil
}

// ReleaseHash deletes the registration when documentID owns it
func (s *DocumentStore) ReleaseHash(ctx context.Context, contentHash, documentID string) error {
	query := `DELETE FROM document_hashes WHERE content_hash = $1 AND document_id = $2`
	if _, err := s.db.ExecContext(ctx, query, contentHash, documentID); err != nil {
		return fmt.Errorf("%w: release hash: %v", domain.ErrDurableStoreUnavailable, err)
	}
	return nil
}

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, session_id, filename, content_hash, parsed_text, chunk_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			parsed_text = EXCLUDED.parsed_text,
			chunk_count = EXCLUDED.chunk_count
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.SessionID, doc.Filename, doc.ContentHash, doc.ParsedText, doc.ChunkCount, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, session_id, filename, content_hash, parsed_text, chunk_count, created_at
		FROM documents
		WHERE id = $1
	`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListBySession returns a session's documents in upload order, without parsed text
func (s *DocumentStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	query := `
		SELECT id, session_id, filename, content_hash, '', chunk_count, created_at
		FROM documents
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(
		&doc.ID, &doc.SessionID, &doc.Filename, &doc.ContentHash,
		&doc.ParsedText, &doc.ChunkCount, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
