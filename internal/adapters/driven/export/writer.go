// Package export writes batch results to disk.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ResultWriter = (*Writer)(nil)

// File names per format.
const (
	JSONFile = "chunks.json"
	YAMLFile = "chunks.yaml"
)

// Writer serialises the ordered record list into a single file.
type Writer struct {
	dir    string
	format domain.OutputFormat
}

// NewWriter creates a writer for the output directory.
// An empty directory means the working directory.
func NewWriter(dir string, format domain.OutputFormat) (*Writer, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: output format %q", domain.ErrInvalidInput, format)
	}
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, format: format}, nil
}

// Path returns the file Write produces.
func (w *Writer) Path() string {
	if w.format == domain.OutputFormatYAML {
		return filepath.Join(w.dir, YAMLFile)
	}
	return filepath.Join(w.dir, JSONFile)
}

// Write encodes result.Records and replaces the output file atomically.
// A nil or empty result writes an empty list.
func (w *Writer) Write(ctx context.Context, result *domain.BatchResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	records := []domain.DocumentRecord{}
	if result != nil && result.Records != nil {
		records = result.Records
	}

	data, err := w.encode(records)
	if err != nil {
		return "", fmt.Errorf("export: encode %s: %w", w.format, err)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("export: create output directory: %w", err)
	}

	path := w.Path()
	tmp, err := os.CreateTemp(w.dir, ".chunks-*")
	if err != nil {
		return "", fmt.Errorf("export: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("export: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export: rename: %w", err)
	}
	return path, nil
}

func (w *Writer) encode(records []domain.DocumentRecord) ([]byte, error) {
	if w.format == domain.OutputFormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
