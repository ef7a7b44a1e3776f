package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

// DefaultMaxFileSize is the upload limit when none is configured (20 MB)
const DefaultMaxFileSize = 20 << 20

// IngestionConfig configures upload acceptance.
type IngestionConfig struct {
	// MaxFileSize in bytes; 0 uses DefaultMaxFileSize
	MaxFileSize int64
	// UploadDir, when set, keeps a copy of each accepted file as <document_id><ext>
	UploadDir string
	Logger    *slog.Logger
}

type ingestionService struct {
	parsers   driven.ParserRegistry
	documents driven.DocumentStore
	jobs      driven.JobStore
	scheduler driven.JobScheduler
	cfg       IngestionConfig
	logger    *slog.Logger
}

// NewIngestionService creates the upload gate in front of the ingestion pipeline.
func NewIngestionService(
	parsers driven.ParserRegistry,
	documents driven.DocumentStore,
	jobs driven.JobStore,
	scheduler driven.JobScheduler,
	cfg IngestionConfig,
) driving.IngestionService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestionService{
		parsers:   parsers,
		documents: documents,
		jobs:      jobs,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger.With("component", "ingestion"),
	}
}

// ContentHash returns the hex SHA-256 of data
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Submit validates the upload, registers its content hash and schedules a job.
// The hash is registered before scheduling so concurrent duplicates lose; it is
// released again when the job cannot be recorded or scheduled.
func (s *ingestionService) Submit(ctx context.Context, req driving.SubmitRequest) (*domain.IngestionJob, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if s.parsers.Get(req.Filename) == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, domain.FileExtension(req.Filename))
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, len(req.Data), s.cfg.MaxFileSize)
	}

	hash := ContentHash(req.Data)
	documentID := domain.GenerateID()
	if err := s.documents.RegisterHash(ctx, hash, documentID); err != nil {
		return nil, err
	}

	job := domain.NewIngestionJob(documentID, req.SessionID, filepath.Base(req.Filename), hash)
	if err := s.jobs.Save(ctx, job); err != nil {
		s.releaseHash(ctx, hash, documentID)
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.retain(documentID, req.Filename, req.Data)

	if err := s.scheduler.Schedule(ctx, job, req.Data); err != nil {
		job.MarkFailed(err.Error())
		_ = s.jobs.Save(context.WithoutCancel(ctx), job)
		s.releaseHash(ctx, hash, documentID)
		return nil, fmt.Errorf("schedule job: %w", err)
	}

	s.logger.Info("upload accepted",
		"document_id", documentID,
		"job_id", job.ID,
		"session_id", req.SessionID,
		"filename", job.Filename,
		"bytes", len(req.Data),
	)
	return job, nil
}

// GetJob returns a job by ID
func (s *ingestionService) GetJob(ctx context.Context, id string) (*domain.IngestionJob, error) {
	return s.jobs.Get(ctx, id)
}

func (s *ingestionService) releaseHash(ctx context.Context, hash, documentID string) {
	if err := s.documents.ReleaseHash(context.WithoutCancel(ctx), hash, documentID); err != nil {
		s.logger.Warn("failed to release content hash", "document_id", documentID, "error", err)
	}
}

// retain writes the raw upload to UploadDir. Failures are logged only.
func (s *ingestionService) retain(documentID, filename string, data []byte) {
	if s.cfg.UploadDir == "" {
		return
	}
	path := filepath.Join(s.cfg.UploadDir, documentID+domain.FileExtension(filename))
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.logger.Warn("failed to create upload dir", "dir", s.cfg.UploadDir, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("failed to retain upload", "path", path, "error", err)
	}
}
