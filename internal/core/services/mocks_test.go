package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/cleaner"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/segmenter"
)

// --- Mock implementations ---

// constClassifier scores every candidate the same.
type constClassifier struct {
	score float64
	err   error
}

func (c constClassifier) Score(_ context.Context, _ string) (float64, error) {
	return c.score, c.err
}

// mockEmbeddingService returns [word count, char count] for each text.
type mockEmbeddingService struct {
	mu       sync.Mutex
	dims     int
	err      error
	calls    int
	override [][]float32
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	v := make([]float32, m.dims)
	if m.dims > 0 {
		v[0] = float32(len(strings.Fields(text)))
	}
	if m.dims > 1 {
		v[1] = float32(len(text))
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.override != nil {
		return m.override, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int             { return m.dims }
func (m *mockEmbeddingService) ModelName() string           { return "mock" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                { return nil }

// mockVectorIndex wraps a flat index and can fail on demand.
type mockVectorIndex struct {
	driven.VectorIndex
	addErr    error
	searchErr error
	hits      []driven.VectorHit
}

func (m *mockVectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) ([]int, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.VectorIndex.Add(ctx, entries)
}

func (m *mockVectorIndex) Search(ctx context.Context, q []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.hits != nil {
		return m.hits, nil
	}
	return m.VectorIndex.Search(ctx, q, k)
}

// flakyStore wraps a memory store and fails selected calls.
type flakyStore struct {
	*memory.DocumentStore
	lookupErr error
	chunksErr error
}

func (s *flakyStore) GetDocumentByURI(ctx context.Context, uri string) (*domain.Document, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.DocumentStore.GetDocumentByURI(ctx, uri)
}

func (s *flakyStore) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if s.chunksErr != nil {
		return s.chunksErr
	}
	return s.DocumentStore.SaveChunks(ctx, documentID, chunks)
}

// failingRefiner fails every call.
type failingRefiner struct{}

func (failingRefiner) Name() string { return "failing" }
func (failingRefiner) Process(_ context.Context, _ *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	return nil, errors.New("refiner exploded")
}

// dropRefiner drops chunks containing "drop" and renumbers the rest.
type dropRefiner struct{}

func (dropRefiner) Name() string { return "drop" }
func (dropRefiner) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	var kept []domain.Chunk
	for _, c := range chunks {
		if strings.Contains(c.Content, "drop") {
			continue
		}
		c.Position = len(kept)
		kept = append(kept, c)
	}
	return kept, nil
}

// --- Fixtures ---

type pipelineFixture struct {
	pipeline *DocumentPipeline
	store    *memory.DocumentStore
	index    *mockVectorIndex
	embedder *mockEmbeddingService
}

type fixtureOptions struct {
	classifier driven.Classifier
	refiner    driven.PostProcessor
	opts       []PipelineOption
}

func newPipelineFixture(t *testing.T, fo fixtureOptions) *pipelineFixture {
	t.Helper()
	if fo.classifier == nil {
		fo.classifier = constClassifier{score: 1}
	}
	idx, err := flat.New(2)
	require.NoError(t, err)

	f := &pipelineFixture{
		store:    memory.NewDocumentStore(),
		index:    &mockVectorIndex{VectorIndex: idx},
		embedder: &mockEmbeddingService{dims: 2},
	}
	f.pipeline = NewDocumentPipeline(
		normalisers.NewRegistry(plaintext.New()),
		cleaner.New(),
		segmenter.New(fo.classifier),
		fo.refiner,
		f.embedder,
		f.index,
		f.store,
		fo.opts...,
	)
	return f
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
