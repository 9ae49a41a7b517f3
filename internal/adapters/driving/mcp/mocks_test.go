package mcp

import (
	"context"
	"testing"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	limit   int
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.limit = opts.Limit
	return m.results, m.err
}

// mockPipelineService is a mock implementation of driving.PipelineService.
type mockPipelineService struct {
	record *domain.DocumentRecord
	err    error
	path   string
	pages  domain.PageRange
}

func (m *mockPipelineService) ProcessDocument(
	_ context.Context,
	path string,
	pages domain.PageRange,
) (*domain.DocumentRecord, error) {
	m.path = path
	m.pages = pages
	return m.record, m.err
}

func (m *mockPipelineService) ProcessDirectory(_ context.Context, _ string) (*domain.BatchResult, error) {
	return &domain.BatchResult{}, m.err
}

func (m *mockPipelineService) RemoveDocument(_ context.Context, _ string) error {
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	details   *driving.DocumentDetails
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// newTestServer fills missing required ports with empty mocks.
func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Search == nil {
		ports.Search = &mockSearchService{}
	}
	if ports.Pipeline == nil {
		ports.Pipeline = &mockPipelineService{}
	}
	s, err := NewServer(ports)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}
