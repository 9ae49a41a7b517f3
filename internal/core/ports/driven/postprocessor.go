package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// PostProcessor turns document content into chunks or refines chunks.
// PostProcessors are chained in a pipeline (segmentation, filtering, dedupe).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor refines chunks (e.g., filter), it receives and returns chunks.
	// If the processor creates chunks (e.g., segmenter), it receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}
