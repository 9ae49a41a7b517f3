// Package pdf extracts text and metadata from PDF documents.
package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// infoKeys are the document info entries copied into metadata.
var infoKeys = []string{"Title", "Author", "Subject", "Creator", "Producer"}

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns the plain text of the selected pages, one line break
// between pages. Pages without content contribute nothing.
func (e *Extractor) Extract(_ context.Context, path string, pages domain.PageRange) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf %s: %v", domain.ErrExtraction, path, r)
		}
	}()

	f, r, err := open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	start, end, err := pages.Resolve(r.NumPage())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	var sb strings.Builder
	for i := start; i <= end; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", domain.ErrExtraction, i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	text = sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, domain.ErrNoText)
	}
	return text, nil
}

// Metadata returns page count, encryption flag, the info dictionary,
// file size and extraction time.
func (e *Extractor) Metadata(_ context.Context, path string) (meta map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf %s: %v", domain.ErrExtraction, path, r)
		}
	}()

	f, r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrExtraction, path, err)
	}

	trailer := r.Trailer()
	meta = normalisers.FileMetadata(stat, r.NumPage(), !trailer.Key("Encrypt").IsNull())

	info := make(map[string]string)
	dict := trailer.Key("Info")
	for _, key := range infoKeys {
		v := dict.Key(key)
		if v.Kind() != lpdf.String {
			continue
		}
		if s := strings.TrimSpace(v.Text()); s != "" {
			info[key] = s
		}
	}
	meta[normalisers.KeyInfo] = info

	return meta, nil
}

func open(path string) (*os.File, *lpdf.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %w", domain.ErrExtraction, path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: stat %s: %w", domain.ErrExtraction, path, err)
	}

	r, err := lpdf.NewReader(f, stat.Size())
	if err != nil {
		f.Close()
		msg := err.Error()
		if strings.Contains(msg, "encrypted") || strings.Contains(msg, "password") {
			return nil, nil, fmt.Errorf("%w: encrypted pdf not supported: %s", domain.ErrExtraction, path)
		}
		return nil, nil, fmt.Errorf("%w: parse %s: %w", domain.ErrExtraction, path, err)
	}
	return f, r, nil
}
