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

	// ErrUnsupportedType indicates no extractor handles a file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrExtraction indicates a file could not be read or its text extracted.
	ErrExtraction = errors.New("extraction failure")

	// ErrClassification indicates the scoring backend failed.
	// The whole document is abandoned; no partial chunk list is kept.
	ErrClassification = errors.New("classification failure")

	// ErrEmbedding indicates the embedding backend failed or returned
	// a vector of the wrong dimension.
	ErrEmbedding = errors.New("embedding failure")

	// ErrFilter indicates a single segment could not be evaluated.
	// It is recovered locally by dropping the segment.
	ErrFilter = errors.New("filter failure")

	// ErrIndex indicates a vector could not be inserted or queried.
	ErrIndex = errors.New("index failure")

	// Extraction Details.

	// ErrInvalidPageRange indicates page bounds outside the document.
	ErrInvalidPageRange = errors.New("invalid page range")

	// ErrNoText indicates extraction succeeded but produced no text.
	ErrNoText = errors.New("no text found")
)

// StageError records the pipeline stage at which a document failed.
type StageError struct {
	// Stage is the stage that was being entered when the failure occurred.
	Stage Stage

	// URI identifies the failed document.
	URI string

	// Err is the underlying error, usually wrapping a pipeline sentinel.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.URI, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the failed stage from err.
// It returns StageFailed when err carries no stage information.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageFailed
}
