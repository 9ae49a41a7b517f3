package mcp

import (
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search answers similarity queries.
	Search driving.SearchService

	// Pipeline ingests files.
	Pipeline driving.PipelineService

	// Document lists and reads ingested documents. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
