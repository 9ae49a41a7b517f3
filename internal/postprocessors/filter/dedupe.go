package filter

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Dedupe implements the interface.
var _ driven.PostProcessor = (*Dedupe)(nil)

// DedupeName is the registry name of the dedupe processor.
const DedupeName = "dedupe"

// Dedupe drops chunks whose content repeats an earlier chunk of the same
// document. The first occurrence is kept and positions are renumbered.
type Dedupe struct{}

// NewDedupe creates a dedupe processor.
func NewDedupe() *Dedupe {
	return &Dedupe{}
}

// Name returns the processor name.
func (d *Dedupe) Name() string {
	return DedupeName
}

// Process removes repeated chunk texts.
func (d *Dedupe) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	seen := make(map[string]struct{}, len(chunks))
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if _, dup := seen[c.Content]; dup {
			continue
		}
		seen[c.Content] = struct{}{}
		c.Position = len(kept)
		kept = append(kept, c)
	}
	return kept, nil
}
