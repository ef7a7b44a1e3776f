package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// JobStatus represents the current state of an ingestion job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal returns true once the job can no longer change state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// IngestionJob tracks the background ingestion of one uploaded document
type IngestionJob struct {
	// ID is the unique identifier for this job
	ID string `json:"job_id"`

	// DocumentID is assigned when the upload passes the dedup gate
	DocumentID string `json:"document_id"`

	// SessionID scopes the document's chunks
	SessionID string `json:"session_id"`

	Filename    string `json:"filename"`
	ContentHash string `json:"content_hash"`

	// Status is the current state of the job
	Status JobStatus `json:"status"`

	// Error contains the failure message if failed
	Error string `json:"error,omitempty"`

	// ChunkCount is the number of chunks indexed on success
	ChunkCount int `json:"chunk_count,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewIngestionJob creates a queued job for a document
func NewIngestionJob(documentID, sessionID, filename, contentHash string) *IngestionJob {
	now := time.Now().UTC()
	return &IngestionJob{
		ID:          GenerateID(),
		DocumentID:  documentID,
		SessionID:   sessionID,
		Filename:    filename,
		ContentHash: contentHash,
		Status:      JobStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkRunning updates the job to running state
func (j *IngestionJob) MarkRunning() {
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkSucceeded updates the job to succeeded state
func (j *IngestionJob) MarkSucceeded(chunkCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusSucceeded
	j.ChunkCount = chunkCount
	j.FinishedAt = &now
	j.UpdatedAt = now
	j.Error = ""
}

// MarkFailed updates the job to failed state
func (j *IngestionJob) MarkFailed(err string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.UpdatedAt = now
	j.Error = err
}

// Duration returns how long the job ran, or zero if it has not finished
func (j *IngestionJob) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}
