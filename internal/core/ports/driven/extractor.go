package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Extractor reads text and metadata from one kind of file.
type Extractor interface {
	// Extensions returns the lowercase file extensions handled, with dot.
	Extensions() []string

	// Extract returns the text of the selected pages.
	// Invalid page ranges and empty text are errors wrapping
	// domain.ErrExtraction.
	Extract(ctx context.Context, path string, pages domain.PageRange) (string, error)

	// Metadata returns file-level metadata such as page count and size.
	Metadata(ctx context.Context, path string) (map[string]any, error)
}

// ExtractorRegistry selects the extractor for a path.
type ExtractorRegistry interface {
	// Register adds an extractor for all of its extensions.
	Register(extractor Extractor)

	// ForPath returns the extractor for the file's extension.
	// Returns domain.ErrUnsupportedType when none matches.
	ForPath(path string) (Extractor, error)

	// Supports reports whether a path can be extracted.
	Supports(path string) bool
}
