package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/documind/internal/parsers"
	"github.com/custodia-labs/documind/internal/postprocessors"
	"github.com/custodia-labs/documind/internal/runtime"
)

// fixture wires every service over in-memory mocks.
type fixture struct {
	embedder  *mocks.MockEmbeddingService
	llm       *mocks.MockLLMService
	window    *mocks.MockSessionContextStore
	messages  *mocks.MockMessageStore
	sessions  *mocks.MockChatSessionStore
	documents *mocks.MockDocumentStore
	index     *mocks.MockVectorIndex
	jobs      *mocks.MockJobStore
	scheduler *mocks.MockJobScheduler
	registry  *parsers.Registry
	services  *runtime.Services

	sessionContext *SessionContext
	ingestor       *Ingestor
	ingestion      *ingestionService
	retriever      *Retriever
	assembler      *ContextAssembler
	engine         *AnswerEngine
	chat           *chatService
	chatSessions   *chatSessionService
	evaluation     *evaluationService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := buildFixture()
	t.Cleanup(func() { _ = f.services.Close() })
	return f
}

func buildFixture() *fixture {
	rag := domain.DefaultRAGConfig()

	f := &fixture{
		embedder:  mocks.NewMockEmbeddingService(),
		llm:       mocks.NewMockLLMService("Hello", ", world"),
		window:    mocks.NewMockSessionContextStore(rag.MaxContextMessages),
		messages:  mocks.NewMockMessageStore(),
		sessions:  mocks.NewMockChatSessionStore(),
		documents: mocks.NewMockDocumentStore(),
		index:     mocks.NewMockVectorIndex(),
		jobs:      mocks.NewMockJobStore(),
		scheduler: mocks.NewMockJobScheduler(),
		registry:  parsers.NewRegistry(),
	}
	f.registry.Register(mocks.NewMockParser(".pdf", ".docx", ".pptx"))

	f.services = runtime.NewServices(domain.NewRuntimeConfig("memory", "memory", "memory"))
	f.services.SetEmbeddingService(f.embedder)
	f.services.SetLLMService(f.llm)

	pipeline := postprocessors.DefaultPipeline(postprocessors.ChunkConfig{
		MaxChunkSize: rag.ChunkSize,
		Overlap:      rag.ChunkOverlap,
	})

	f.ingestor = NewIngestor(f.registry, pipeline, f.documents, f.index, f.services, IngestorConfig{
		EmbedBatchSize: 4,
		Logger:         quietLogger(),
	})
	f.ingestion = NewIngestionService(f.registry, f.documents, f.jobs, f.scheduler, IngestionConfig{
		Logger: quietLogger(),
	}).(*ingestionService)
	f.retriever = NewRetriever(f.index, f.services, rag.TopK)
	f.assembler = NewContextAssembler(rag.MaxRecentMessages, rag.MaxChunks)
	f.evaluation = NewEvaluationService(f.documents, f.services, quietLogger()).(*evaluationService)
	f.useSessionStore(f.window)
	return f
}

// useSessionStore rebuilds the conversational services over store.
func (f *fixture) useSessionStore(store driven.SessionContextStore) {
	logger := quietLogger()
	f.sessionContext = NewSessionContext(store, f.messages, f.sessions, logger)
	f.engine = NewAnswerEngine(f.services, f.sessionContext, 5*time.Second, logger)
	f.chat = NewChatService(f.services, f.sessionContext, f.retriever, f.assembler, f.engine, ChatConfig{
		TopK:   domain.DefaultRAGConfig().TopK,
		Logger: logger,
	}).(*chatService)
	f.chatSessions = NewChatSessionService(f.sessions, f.messages, f.sessionContext, f.services, logger).(*chatSessionService)
}

// drain reads a stream to the end and returns its fragments.
func drain(stream interface {
	Fragments() <-chan domain.Fragment
}) []domain.Fragment {
	var out []domain.Fragment
	for f := range stream.Fragments() {
		out = append(out, f)
	}
	return out
}

func texts(fragments []domain.Fragment) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = f.Text
	}
	return out
}
