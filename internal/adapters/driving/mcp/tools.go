package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// defaultSearchLimit applies when the caller omits a limit.
const defaultSearchLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find similar chunks for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URI        string  `json:"uri"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

// ProcessInput is the input schema for the process_document tool.
type ProcessInput struct {
	Path      string `json:"path" jsonschema:"absolute path of the file to ingest"`
	StartPage int    `json:"start_page,omitempty" jsonschema:"first page, 1-based (default first)"`
	EndPage   int    `json:"end_page,omitempty" jsonschema:"last page, inclusive (default last)"`
}

// ProcessOutput is the output schema for the process_document tool.
type ProcessOutput struct {
	Path               string        `json:"path"`
	InitialChunkCount  int           `json:"initial_chunk_count"`
	FilteredChunkCount int           `json:"filtered_chunk_count"`
	Chunks             []ChunkOutput `json:"chunks"`
}

// ChunkOutput is a stored chunk without its embedding.
type ChunkOutput struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the indexed chunks nearest to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "process_document",
		Description: "Extract, segment, filter, embed and index a local file",
	}, s.handleProcess)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{Limit: limit})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].Document.ID,
			Title:      results[i].Document.Title,
			URI:        results[i].Document.URI,
			ChunkID:    results[i].Chunk.ID,
			Position:   results[i].Chunk.Position,
			Distance:   results[i].Distance,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleProcess handles the process_document tool invocation.
func (s *Server) handleProcess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessInput,
) (*mcp.CallToolResult, ProcessOutput, error) {
	if input.Path == "" {
		return nil, ProcessOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	pages := domain.PageRange{Start: input.StartPage, End: input.EndPage}
	record, err := s.ports.Pipeline.ProcessDocument(ctx, input.Path, pages)
	if err != nil {
		var se *domain.StageError
		if errors.As(err, &se) {
			return nil, ProcessOutput{}, fmt.Errorf("%s failed: %w", se.Stage, se.Err)
		}
		return nil, ProcessOutput{}, err
	}

	output := ProcessOutput{
		Path:               input.Path,
		InitialChunkCount:  record.Stats.InitialChunkCount,
		FilteredChunkCount: record.Stats.FilteredChunkCount,
		Chunks:             make([]ChunkOutput, len(record.Chunks)),
	}
	for i, c := range record.Chunks {
		output.Chunks[i] = ChunkOutput{ID: c.ID, Text: c.Text}
	}

	return nil, output, nil
}
