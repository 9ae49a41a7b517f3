package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func TestProcessDocument_AllStages(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	path := writeFile(t, t.TempDir(), "river_notes.txt", "The river reached the sea. It was  calm!\nBirds flew over.")

	record, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
	require.NoError(t, err)

	require.Len(t, record.Chunks, 3)
	assert.Equal(t, "The river reached the sea.", record.Chunks[0].Text)
	assert.Equal(t, "It was calm!", record.Chunks[1].Text)
	assert.Equal(t, "Birds flew over.", record.Chunks[2].Text)
	for i, c := range record.Chunks {
		assert.Equal(t, i, c.ID)
		assert.Len(t, c.Embedding, 2)
	}
	assert.Equal(t, domain.DocumentStats{InitialChunkCount: 3, FilteredChunkCount: 3}, record.Stats)
	assert.NotEmpty(t, record.Metadata[MetaContentHash])
	assert.Equal(t, "all", record.Metadata[MetaPageRange])
	assert.Equal(t, 3, f.index.Len())

	uri, _ := filepath.Abs(path)
	doc, err := f.store.GetDocumentByURI(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "river notes", doc.Title)
	assert.Equal(t, "The river reached the sea. It was calm! Birds flew over.", doc.Content)

	chunks, err := f.store.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, doc.ID, chunks[0].DocumentID)
}

func TestProcessDocument_FilterCountsAndRenumbering(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{refiner: dropRefiner{}})
	path := writeFile(t, t.TempDir(), "a.txt", "Keep this one. Please drop this one. Keep the last.")

	record, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
	require.NoError(t, err)

	assert.Equal(t, 3, record.Stats.InitialChunkCount)
	assert.Equal(t, 2, record.Stats.FilteredChunkCount)
	require.Len(t, record.Chunks, 2)
	assert.Equal(t, 0, record.Chunks[0].ID)
	assert.Equal(t, 1, record.Chunks[1].ID)
	assert.Equal(t, "Keep the last.", record.Chunks[1].Text)
}

func TestProcessDocument_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		file      string
		setup     func(f *pipelineFixture)
		opts      fixtureOptions
		wantStage domain.Stage
		wantErr   error
	}{
		{
			name:      "empty text",
			file:      "empty.txt",
			content:   "   \n ",
			wantStage: domain.StageExtracted,
			wantErr:   domain.ErrNoText,
		},
		{
			name:      "unsupported type",
			file:      "image.png",
			content:   "binary",
			wantStage: domain.StageExtracted,
			wantErr:   domain.ErrUnsupportedType,
		},
		{
			name:      "classifier error",
			file:      "a.txt",
			content:   "Some text.",
			opts:      fixtureOptions{classifier: constClassifier{err: errors.New("model down")}},
			wantStage: domain.StageSegmented,
			wantErr:   domain.ErrClassification,
		},
		{
			name:      "refiner error",
			file:      "a.txt",
			content:   "Some text.",
			opts:      fixtureOptions{refiner: failingRefiner{}},
			wantStage: domain.StageFiltered,
		},
		{
			name:      "embedding error",
			file:      "a.txt",
			content:   "Some text.",
			setup:     func(f *pipelineFixture) { f.embedder.err = errors.New("timeout") },
			wantStage: domain.StageEmbedded,
			wantErr:   domain.ErrEmbedding,
		},
		{
			name:    "embedding dimension mismatch",
			file:    "a.txt",
			content: "Some text.",
			setup: func(f *pipelineFixture) {
				f.embedder.override = [][]float32{{1, 2, 3}}
			},
			wantStage: domain.StageEmbedded,
			wantErr:   domain.ErrEmbedding,
		},
		{
			name:    "embedding count mismatch",
			file:    "a.txt",
			content: "Some text.",
			setup: func(f *pipelineFixture) {
				f.embedder.override = [][]float32{}
			},
			wantStage: domain.StageEmbedded,
			wantErr:   domain.ErrEmbedding,
		},
		{
			name:      "index error",
			file:      "a.txt",
			content:   "Some text.",
			setup:     func(f *pipelineFixture) { f.index.addErr = domain.ErrIndex },
			wantStage: domain.StageIndexed,
			wantErr:   domain.ErrIndex,
		},
		{
			name:    "previous version lookup error",
			file:    "a.txt",
			content: "Some text.",
			setup: func(f *pipelineFixture) {
				f.pipeline.docStore = &flakyStore{DocumentStore: f.store, lookupErr: errors.New("disk I/O error")}
			},
			wantStage: domain.StageIndexed,
			wantErr:   domain.ErrIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t, tt.opts)
			if tt.setup != nil {
				tt.setup(f)
			}
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			record, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
			require.Error(t, err)
			assert.Nil(t, record)

			var se *domain.StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Equal(t, tt.wantStage, domain.FailedStage(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantStage == domain.StageExtracted {
				assert.ErrorIs(t, err, domain.ErrExtraction)
			}
		})
	}
}

func TestProcessDocument_ClassifierFailureLeavesNothingStored(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{classifier: constClassifier{err: errors.New("boom")}})
	path := writeFile(t, t.TempDir(), "a.txt", "One. Two.")

	_, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
	require.Error(t, err)

	docs, err := f.store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, f.index.Len())
}

func TestProcessDocument_InvalidPageRange(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	path := writeFile(t, t.TempDir(), "a.txt", "Page one.\fPage two.")

	_, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{Start: 2, End: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidPageRange)
	assert.Equal(t, domain.StageExtracted, domain.FailedStage(err))

	record, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{Start: 2, End: 2})
	require.NoError(t, err)
	require.Len(t, record.Chunks, 1)
	assert.Equal(t, "Page two.", record.Chunks[0].Text)
	assert.Equal(t, "2-2", record.Metadata[MetaPageRange])
}

func TestProcessDocument_ReprocessReplacesPreviousVersion(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "First. Second. Third.")

	_, err := f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.NoError(t, err)
	uri, _ := filepath.Abs(path)
	first, err := f.store.GetDocumentByURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, 3, f.index.Len())

	writeFile(t, dir, "a.txt", "Only one now.")
	_, err = f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.NoError(t, err)

	second, err := f.store.GetDocumentByURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, 1, f.index.Len())

	docs, err := f.store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	chunks, err := f.store.GetChunks(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Only one now.", chunks[0].Content)
}

func TestProcessDocument_FailedReplacementKeepsPreviousVersion(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "First. Second. Third.")

	_, err := f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.NoError(t, err)
	uri, _ := filepath.Abs(path)
	before, err := f.store.GetDocumentByURI(ctx, uri)
	require.NoError(t, err)
	beforeChunks, err := f.store.GetChunks(ctx, before.ID)
	require.NoError(t, err)
	require.Len(t, beforeChunks, 3)

	writeFile(t, dir, "a.txt", "Only one now.")
	f.index.addErr = domain.ErrIndex
	_, err = f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.ErrorIs(t, err, domain.ErrIndex)
	assert.Equal(t, domain.StageIndexed, domain.FailedStage(err))

	after, err := f.store.GetDocumentByURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, before.Metadata[MetaContentHash], after.Metadata[MetaContentHash])
	afterChunks, err := f.store.GetChunks(ctx, after.ID)
	require.NoError(t, err)
	assert.Equal(t, beforeChunks, afterChunks)
	assert.Equal(t, 3, f.index.Len())

	hits, err := f.index.Search(ctx, beforeChunks[0].Embedding, 5)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, beforeChunks[0].ID, hits[0].ChunkID)

	// Once the index recovers the retry replaces the old version.
	f.index.addErr = nil
	_, err = f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.index.Len())
	hits, err = f.index.Search(ctx, []float32{0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.NotEqual(t, beforeChunks[0].ID, hits[0].ChunkID)
}

func TestProcessDocument_ChunkSaveFailureRestoresDocument(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "First. Second.")

	_, err := f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.NoError(t, err)
	uri, _ := filepath.Abs(path)
	before, err := f.store.GetDocumentByURI(ctx, uri)
	require.NoError(t, err)

	f.pipeline.docStore = &flakyStore{DocumentStore: f.store, chunksErr: errors.New("disk full")}
	writeFile(t, dir, "a.txt", "Rewritten entirely.")
	_, err = f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.ErrorIs(t, err, domain.ErrIndex)

	after, err := f.store.GetDocumentByURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, before.Metadata[MetaContentHash], after.Metadata[MetaContentHash])
	assert.Equal(t, 2, f.index.Len(), "new vectors are discarded and old ones kept")

	// A first-time document that cannot be saved leaves nothing behind.
	other := writeFile(t, dir, "b.txt", "Brand new.")
	_, err = f.pipeline.ProcessDocument(ctx, other, domain.PageRange{})
	require.ErrorIs(t, err, domain.ErrIndex)
	otherURI, _ := filepath.Abs(other)
	_, err = f.store.GetDocumentByURI(ctx, otherURI)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, f.index.Len())
}

func TestProcessDocument_Idempotent(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{classifier: constClassifier{score: 0.05}})
	path := writeFile(t, t.TempDir(), "a.txt", "Alpha beta. Gamma delta, epsilon. Zeta!")

	first, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
	require.NoError(t, err)
	second, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks)
	require.Len(t, first.Chunks, 1, "no score above threshold keeps one chunk")
	assert.Equal(t, "Alpha beta. Gamma delta, epsilon. Zeta!", first.Chunks[0].Text)
}

func TestProcessDocument_WithoutEmbedding(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	f.pipeline.embeddingService = nil
	path := writeFile(t, t.TempDir(), "a.txt", "One. Two.")

	record, err := f.pipeline.ProcessDocument(context.Background(), path, domain.PageRange{})
	require.NoError(t, err)
	require.Len(t, record.Chunks, 2)
	assert.NotNil(t, record.Chunks[0].Embedding)
	assert.Empty(t, record.Chunks[0].Embedding)
	assert.Equal(t, 0, f.index.Len())

	encoded, err := json.Marshal(record.Chunks[0])
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"embedding":[]`)
}

func TestProcessDirectory_RecordsFailuresAndKeepsOrder(t *testing.T) {
	for _, workers := range []int{1, 3} {
		f := newPipelineFixture(t, fixtureOptions{opts: []PipelineOption{WithConcurrency(workers)}})
		dir := t.TempDir()
		writeFile(t, dir, "doc1.txt", "First document. It has two sentences.")
		writeFile(t, dir, "doc2.txt", "  \n\t ")
		writeFile(t, dir, "doc3.txt", "Third document.")
		writeFile(t, dir, "ignored.png", "not text")
		writeFile(t, dir, ".hidden.txt", "Hidden.")

		result, err := f.pipeline.ProcessDirectory(context.Background(), dir)
		require.NoError(t, err)

		require.Len(t, result.Records, 2)
		assert.Equal(t, "First document.", result.Records[0].Chunks[0].Text)
		assert.Equal(t, "Third document.", result.Records[1].Chunks[0].Text)

		require.Len(t, result.Failures, 1)
		failure := result.Failures[0]
		assert.Equal(t, "doc2.txt", filepath.Base(failure.URI))
		assert.Equal(t, domain.StageExtracted, failure.Stage)
		assert.Contains(t, failure.Reason, domain.ErrNoText.Error())
	}
}

func TestProcessDirectory_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "Top level.")
	writeFile(t, dir, "sub/a.txt", "Nested file.")
	writeFile(t, dir, ".git/c.txt", "Hidden tree.")

	flatRun := newPipelineFixture(t, fixtureOptions{})
	result, err := flatRun.pipeline.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)

	deep := newPipelineFixture(t, fixtureOptions{opts: []PipelineOption{WithRecursive(true)}})
	result, err = deep.pipeline.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Top level.", result.Records[0].Chunks[0].Text)
	assert.Equal(t, "Nested file.", result.Records[1].Chunks[0].Text)
}

func TestProcessDirectory_MissingDirectory(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})

	_, err := f.pipeline.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestProcessDirectory_CancelledContext(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Text.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.pipeline.ProcessDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessDirectory_EmptyResultIsNotNil(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})

	result, err := f.pipeline.ProcessDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, result.Records)
	assert.NotNil(t, result.Failures)
}

func TestRemoveDocument(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "a.txt", "One. Two.")
	_, err := f.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	require.NoError(t, err)

	removed, err := f.pipeline.RemoveByURI(ctx, path)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, f.index.Len())

	removed, err = f.pipeline.RemoveByURI(ctx, path)
	require.NoError(t, err)
	assert.False(t, removed)

	err = f.pipeline.RemoveDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewFailure_WithoutStage(t *testing.T) {
	failure := newFailure("/x.txt", errors.New("plain"))
	assert.Equal(t, domain.StageFailed, failure.Stage)
	assert.Equal(t, "/x.txt", failure.URI)
	assert.Equal(t, "plain", failure.Reason)
}

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		metadata map[string]any
		expected string
	}{
		{name: "filename", path: "/path/to/my_document.pdf", expected: "my document"},
		{name: "dashes", path: "annual-report-2024.txt", expected: "annual report 2024"},
		{name: "info title", path: "/x.pdf", metadata: map[string]any{"info": map[string]string{"Title": "Real Title"}}, expected: "Real Title"},
		{name: "blank info title", path: "/x_y.pdf", metadata: map[string]any{"info": map[string]string{"Title": "  "}}, expected: "x y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, documentTitle(tt.path, tt.metadata))
		})
	}
}

var _ driven.PostProcessor = dropRefiner{}
