package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// ResultWriter persists the aggregate output of a batch run.
type ResultWriter interface {
	// Write serialises the ordered records and returns the file written.
	Write(ctx context.Context, result *domain.BatchResult) (string, error)
}
