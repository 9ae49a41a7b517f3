// Package plaintext extracts text from plain text and markdown files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// pageBreak separates pages in plain text files.
const pageBreak = "\f"

// Extractor handles plain text documents.
// Form feed characters split a file into pages; a file without them is a
// single page.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".text", ".md", ".markdown"}
}

// Extract returns the text of the selected pages joined by newlines.
func (e *Extractor) Extract(_ context.Context, path string, pages domain.PageRange) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}

	all := strings.Split(string(data), pageBreak)
	start, end, err := pages.Resolve(len(all))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	text := strings.Join(all[start-1:end], "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, domain.ErrNoText)
	}
	return text, nil
}

// Metadata returns page count, size and extraction time.
func (e *Extractor) Metadata(_ context.Context, path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrExtraction, path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}
	pages := strings.Count(string(data), pageBreak) + 1
	return normalisers.FileMetadata(info, pages, false), nil
}
