package services

import (
	"context"
	"testing"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven/mocks"
)

func TestDocumentService_Get(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	svc := NewDocumentService(store)

	doc := &domain.Document{ID: "doc-123", SessionID: "s1", Filename: "report.pdf"}
	_ = store.Save(context.Background(), doc)

	result, err := svc.Get(context.Background(), "doc-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Filename != doc.Filename {
		t.Errorf("expected filename %s, got %s", doc.Filename, result.Filename)
	}

	_, err = svc.Get(context.Background(), "non-existent")
	if err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentService_ListBySession(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	svc := NewDocumentService(store)

	_ = store.Save(context.Background(), &domain.Document{ID: "a", SessionID: "s1"})
	_ = store.Save(context.Background(), &domain.Document{ID: "b", SessionID: "s2"})
	_ = store.Save(context.Background(), &domain.Document{ID: "c", SessionID: "s1"})

	docs, err := svc.ListBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "c" {
		t.Errorf("unexpected documents %+v", docs)
	}
}
