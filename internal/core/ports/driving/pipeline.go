package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// PipelineService ingests documents into the index.
type PipelineService interface {
	// ProcessDocument runs one file through every stage.
	ProcessDocument(ctx context.Context, path string, pages domain.PageRange) (*domain.DocumentRecord, error)

	// ProcessDirectory processes every supported file in dir.
	// Per-document failures are recorded in the result, not returned.
	ProcessDirectory(ctx context.Context, dir string) (*domain.BatchResult, error)

	// RemoveDocument drops a document from the index and the store.
	RemoveDocument(ctx context.Context, documentID string) error
}
