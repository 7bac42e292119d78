package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateDocument indicates the same file was already uploaded
	// by the same teacher into the same module.
	ErrDuplicateDocument = errors.New("duplicate document")

	// Extraction Errors.

	// ErrUnsupportedFormat indicates no extractor handles the declared file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailed indicates the file could not be parsed.
	// The underlying cause is kept on an *ExtractionError.
	ErrExtractionFailed = errors.New("extraction failed")

	// Chunking Errors.

	// ErrChunkingConfig indicates invalid chunk size or overlap.
	ErrChunkingConfig = errors.New("invalid chunking configuration")

	// Processing Errors.

	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Embedding Errors.

	// ErrEmbeddingBatchFailed indicates one provider batch failed.
	// Sibling batches are unaffected and the missing range is retryable.
	ErrEmbeddingBatchFailed = errors.New("embedding batch failed")

	// ErrEmbeddingProviderUnavailable indicates the provider cannot be reached
	// or its circuit breaker is open. Treated as a batch failure.
	ErrEmbeddingProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrEmbeddingUnavailable indicates no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrDimensionMismatch indicates vectors of different lengths were compared,
	// or a provider returned vectors of a size its model does not declare.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// ExtractionError wraps a parser failure for a specific file type.
// It matches ErrExtractionFailed with errors.Is.
type ExtractionError struct {
	FileType FileType
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.FileType, e.Cause)
}

// Unwrap returns the parser error.
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrExtractionFailed.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// EmbeddingBatchError records which slice of a document's pending chunks
// failed to embed. Start is inclusive, End exclusive.
type EmbeddingBatchError struct {
	Batch int
	Start int
	End   int
	Cause error
}

func (e *EmbeddingBatchError) Error() string {
	return fmt.Sprintf("embedding batch %d [%d,%d): %v", e.Batch, e.Start, e.End, e.Cause)
}

// Unwrap returns the provider error.
func (e *EmbeddingBatchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrEmbeddingBatchFailed.
func (e *EmbeddingBatchError) Is(target error) bool {
	return target == ErrEmbeddingBatchFailed
}

// ErrorType returns a short, stable classification for an error.
// It is recorded in a failed document's metadata.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.Is(err, ErrExtractionFailed):
		return "ExtractionFailed"
	case errors.Is(err, ErrChunkingConfig):
		return "ChunkingConfigError"
	case errors.Is(err, ErrEmbeddingProviderUnavailable):
		return "EmbeddingProviderUnavailable"
	case errors.Is(err, ErrEmbeddingBatchFailed):
		return "EmbeddingBatchFailed"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	default:
		return "InternalError"
	}
}
