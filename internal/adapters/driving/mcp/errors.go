// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-ingest. It lets AI assistants search the local index and ingest
// files through the document pipeline.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingPipelineService is returned when the pipeline is not provided.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")
