package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/runtime"
)

// IngestorConfig tunes the embedding stage of ingestion.
type IngestorConfig struct {
	// EmbedBatchSize is the number of chunks per embedding request
	EmbedBatchSize int
	// EmbedConcurrency bounds in-flight embedding requests per document
	EmbedConcurrency int
	Logger           *slog.Logger
}

// DefaultEmbedConcurrency is used when IngestorConfig leaves it unset
const DefaultEmbedConcurrency = 4

// Ingestor turns raw file bytes into indexed chunks: parse, chunk, embed, upsert.
type Ingestor struct {
	parsers   driven.ParserRegistry
	pipeline  driven.PostProcessorPipeline
	documents driven.DocumentStore
	index     driven.VectorIndex
	services  *runtime.Services
	cfg       IngestorConfig
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor. The embedding service is read from
// services on every run.
func NewIngestor(
	parsers driven.ParserRegistry,
	pipeline driven.PostProcessorPipeline,
	documents driven.DocumentStore,
	index driven.VectorIndex,
	services *runtime.Services,
	cfg IngestorConfig,
) *Ingestor {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = domain.DefaultRAGConfig().EmbedBatchSize
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultEmbedConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		parsers:   parsers,
		pipeline:  pipeline,
		documents: documents,
		index:     index,
		services:  services,
		cfg:       cfg,
		logger:    logger.With("component", "ingestor"),
	}
}

// Ingest runs the pipeline for one job and returns the number of chunks indexed.
// Errors carry ErrUnsupportedFormat, ErrParseFailed, ErrEmbeddingFailed or ErrIndexFailed.
func (i *Ingestor) Ingest(ctx context.Context, job *domain.IngestionJob, data []byte) (int, error) {
	start := time.Now()

	embedder := i.services.EmbeddingService()
	if embedder == nil {
		return 0, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingFailed)
	}

	parser := i.parsers.Get(job.Filename)
	if parser == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, domain.FileExtension(job.Filename))
	}

	parsed, err := parser.Parse(ctx, data)
	if err != nil {
		return 0, classify(domain.ErrParseFailed, err)
	}
	text := parsed.Text()
	if text == "" {
		return 0, fmt.Errorf("%w: no extractable text", domain.ErrParseFailed)
	}

	doc := &domain.Document{
		ID:          job.DocumentID,
		SessionID:   job.SessionID,
		Filename:    job.Filename,
		ContentHash: job.ContentHash,
		ParsedText:  text,
		CreatedAt:   time.Now().UTC(),
	}
	if err := i.documents.Save(ctx, doc); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}

	chunks := i.buildChunks(doc, parsed, text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no chunks produced", domain.ErrParseFailed)
	}

	if err := i.embed(ctx, embedder, chunks); err != nil {
		return 0, err
	}

	if err := i.index.UpsertBatch(ctx, doc.ID, chunks); err != nil {
		return 0, classify(domain.ErrIndexFailed, err)
	}

	doc.ChunkCount = len(chunks)
	if err := i.documents.Save(ctx, doc); err != nil {
		i.logger.Warn("failed to record chunk count", "document_id", doc.ID, "error", err)
	}

	i.logger.Info("document indexed",
		"document_id", doc.ID,
		"job_id", job.ID,
		"chunks", len(chunks),
		"duration", time.Since(start),
	)
	return len(chunks), nil
}

func (i *Ingestor) buildChunks(doc *domain.Document, parsed *domain.ParsedDocument, text string) []*domain.Chunk {
	pieces := i.pipeline.Process(text)
	chunks := make([]*domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		page, section := parsed.Locate(p.StartOffset)
		chunks = append(chunks, &domain.Chunk{
			ID:          domain.ChunkID(doc.ID, p.Position),
			DocumentID:  doc.ID,
			SessionID:   doc.SessionID,
			Ordinal:     p.Position,
			Text:        p.Content,
			Page:        page,
			Section:     section,
			StartOffset: p.StartOffset,
			EndOffset:   p.EndOffset,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return chunks
}

// embed fills Embedding on every chunk. Batches run concurrently; each
// batch writes only its own slice of chunks, so order is preserved.
func (i *Ingestor) embed(ctx context.Context, embedder driven.EmbeddingService, chunks []*domain.Chunk) error {
	dims := embedder.Dimensions()
	size := i.cfg.EmbedBatchSize

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.cfg.EmbedConcurrency)

	for start := 0; start < len(chunks); start += size {
		batch := chunks[start:min(start+size, len(chunks))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, c := range batch {
				texts[j] = c.Text
			}

			vectors, err := embedder.Embed(ctx, texts)
			if err != nil {
				return classify(domain.ErrEmbeddingFailed, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailed, len(vectors), len(batch))
			}
			for j, v := range vectors {
				if len(v) != dims {
					return fmt.Errorf("%w: vector has %d dimensions, want %d", domain.ErrEmbeddingFailed, len(v), dims)
				}
				batch[j].Embedding = v
			}
			return nil
		})
	}
	return g.Wait()
}
