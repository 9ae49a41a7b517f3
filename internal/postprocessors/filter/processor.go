package filter

import (
	"context"
	"maps"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Name is the registry name of the filter processor.
const Name = "filter"

// MetaSegmentPosition records a chunk's position before filtering.
const MetaSegmentPosition = "segment_position"

// Processor applies a Filter to chunks.
// It implements the PostProcessor interface.
type Processor struct {
	filter *Filter
}

// NewProcessor wraps filter as a post-processor.
func NewProcessor(filter *Filter) *Processor {
	return &Processor{filter: filter}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process keeps the chunks that pass the filter, trims their content and
// renumbers positions from zero.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		trimmed, ok, err := p.filter.Admit(ctx, c.Content)
		if err != nil {
			logger.Warn("filter: %s: dropping chunk %d: %v", doc.URI, c.Position, err)
			continue
		}
		if !ok {
			logger.Debug("filter: %s: rejected chunk %d", doc.URI, c.Position)
			continue
		}

		// Copy so the caller's chunks keep their own metadata.
		metadata := make(map[string]any, len(c.Metadata)+1)
		maps.Copy(metadata, c.Metadata)
		metadata[MetaSegmentPosition] = c.Position
		c.Metadata = metadata
		c.Content = trimmed
		c.Position = len(kept)
		kept = append(kept, c)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return kept, nil
}
