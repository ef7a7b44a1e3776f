package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates a required backend is not configured or reachable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDuplicateDocument indicates the content hash is already registered
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrUnsupportedFormat indicates no parser handles the file extension
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrFileTooLarge indicates the upload exceeds the configured size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrParseFailed indicates text extraction failed
	ErrParseFailed = errors.New("parse failed")

	// ErrEmbeddingFailed indicates the embedding service could not embed the input
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexFailed indicates the vector index rejected a read or write
	ErrIndexFailed = errors.New("index failed")

	// ErrSessionStoreUnavailable indicates the session context store could not be reached
	ErrSessionStoreUnavailable = errors.New("session store unavailable")

	// ErrDurableStoreUnavailable indicates the durable message store could not be reached
	ErrDurableStoreUnavailable = errors.New("durable store unavailable")

	// ErrProviderStream indicates the language model stream failed
	ErrProviderStream = errors.New("provider stream failed")
)
