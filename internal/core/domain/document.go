package domain

import (
	"fmt"
	"time"
)

// Document represents an ingested document with metadata.
// It is the canonical representation after extraction and cleaning.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (absolute file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the cleaned text content.
	// This is the complete document text before segmentation.
	Content string

	// Metadata contains extraction metadata such as page count and file size.
	Metadata map[string]any

	// CreatedAt is when the document was first processed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last processed.
	UpdatedAt time.Time
}

// Chunk represents a semantically bounded unit within a document.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the 0-based sequence index within the document.
	// Positions are unique and strictly increasing in source order.
	Position int

	// Score is the classifier score observed when the chunk was committed.
	// A tail chunk carries the last score observed before the flush.
	Score float64

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// PageRange selects pages for extraction.
// Bounds are 1-based and inclusive. Zero means "first page" for Start
// and "last page" for End.
type PageRange struct {
	Start int
	End   int
}

// IsZero reports whether the range selects the whole document.
func (r PageRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Resolve validates the range against a page count and returns concrete
// 1-based inclusive bounds. Invalid ranges are never clamped.
func (r PageRange) Resolve(pageCount int) (start, end int, err error) {
	start, end = r.Start, r.End
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = pageCount
	}
	if start < 1 || end > pageCount || start > end {
		return 0, 0, fmt.Errorf("%w: pages %d-%d of %d", ErrInvalidPageRange, start, end, pageCount)
	}
	return start, end, nil
}

// String formats the range for logs and metadata.
func (r PageRange) String() string {
	switch {
	case r.IsZero():
		return "all"
	case r.End == 0:
		return fmt.Sprintf("%d-", r.Start)
	case r.Start == 0:
		return fmt.Sprintf("-%d", r.End)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
