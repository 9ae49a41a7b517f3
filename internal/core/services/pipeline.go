package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure DocumentPipeline implements the interface.
var _ driving.PipelineService = (*DocumentPipeline)(nil)

// Metadata keys added by the pipeline on top of extractor metadata.
const (
	MetaContentHash = "sha256"
	MetaPageRange   = "page_range"
)

// PipelineOption configures a DocumentPipeline.
type PipelineOption func(*DocumentPipeline)

// WithConcurrency sets how many documents a directory batch processes in
// parallel. Values below 1 mean sequential.
func WithConcurrency(n int) PipelineOption {
	return func(p *DocumentPipeline) {
		p.concurrency = max(n, 1)
	}
}

// WithRecursive makes directory batches descend into subdirectories.
func WithRecursive(recursive bool) PipelineOption {
	return func(p *DocumentPipeline) {
		p.recursive = recursive
	}
}

// DocumentPipeline runs files through extraction, cleaning, segmentation,
// filtering, embedding and indexing.
type DocumentPipeline struct {
	extractors       driven.ExtractorRegistry
	cleaner          driven.Cleaner
	segmenter        driven.PostProcessor
	refiner          driven.PostProcessor
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	docStore         driven.DocumentStore

	concurrency int
	recursive   bool

	// uriLocks serializes runs on the same URI so a replacement never
	// interleaves with another run of that file.
	uriLocks sync.Map
}

// NewDocumentPipeline creates a new pipeline.
// The refiner (filter, dedupe) may be nil. The embedding service and vector
// index are optional together: if either is nil, chunks are stored without
// vectors and nothing is indexed.
func NewDocumentPipeline(
	extractors driven.ExtractorRegistry,
	cleaner driven.Cleaner,
	segmenter driven.PostProcessor,
	refiner driven.PostProcessor,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	docStore driven.DocumentStore,
	opts ...PipelineOption,
) *DocumentPipeline {
	p := &DocumentPipeline{
		extractors:       extractors,
		cleaner:          cleaner,
		segmenter:        segmenter,
		refiner:          refiner,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		docStore:         docStore,
		concurrency:      1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Supports reports whether a path has a registered extractor.
func (p *DocumentPipeline) Supports(path string) bool {
	return p.extractors.Supports(path)
}

// ProcessDocument runs one file through every stage.
// Failures are returned as *domain.StageError.
//
//nolint:gocognit,gocyclo // Pipeline orchestration with sequential steps
func (p *DocumentPipeline) ProcessDocument(
	ctx context.Context,
	path string,
	pages domain.PageRange,
) (*domain.DocumentRecord, error) {
	uri, err := filepath.Abs(path)
	if err != nil {
		uri = path
	}
	fail := func(stage domain.Stage, err error) (*domain.DocumentRecord, error) {
		logger.Debug("%s: failed entering %s: %v", uri, stage, err)
		return nil, &domain.StageError{Stage: stage, URI: uri, Err: err}
	}

	unlock := p.lockURI(uri)
	defer unlock()

	// 1. EXTRACT
	metadata, text, err := p.extract(ctx, uri, pages)
	if err != nil {
		return fail(domain.StageExtracted, err)
	}
	logger.Debug("%s: %s (%d chars)", uri, domain.StageExtracted, len(text))

	// 2. CLEAN
	content := p.cleaner.Clean(text)
	logger.Debug("%s: %s (%d chars)", uri, domain.StageCleaned, len(content))

	// The previous version is read from the store, so a lookup failure is
	// a storage failure.
	doc, previous, err := p.newDocument(ctx, uri, content, metadata)
	if err != nil {
		return fail(domain.StageIndexed, err)
	}

	// 3. SEGMENT
	chunks, err := p.segmenter.Process(ctx, doc, nil)
	if err != nil {
		return fail(domain.StageSegmented, err)
	}
	initial := len(chunks)
	logger.Debug("%s: %s into %d chunks", uri, domain.StageSegmented, initial)

	// 4. FILTER
	if p.refiner != nil {
		chunks, err = p.refiner.Process(ctx, doc, chunks)
		if err != nil {
			return fail(domain.StageFiltered, err)
		}
	}
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	logger.Debug("%s: %s, %d of %d chunks kept", uri, domain.StageFiltered, len(chunks), initial)

	// 5. EMBED
	if err := p.embed(ctx, chunks); err != nil {
		return fail(domain.StageEmbedded, err)
	}
	logger.Debug("%s: %s", uri, domain.StageEmbedded)

	// 6. REPLACE PREVIOUS VERSION, SAVE, INDEX
	if err := p.store(ctx, doc, previous, chunks); err != nil {
		return fail(domain.StageIndexed, err)
	}
	logger.Debug("%s: %s", uri, domain.StageIndexed)

	return newRecord(doc, chunks, initial), nil
}

// ProcessDirectory processes every supported file in dir. Per-document
// failures are recorded and the batch continues. Records keep the sorted
// path order regardless of concurrency.
func (p *DocumentPipeline) ProcessDirectory(ctx context.Context, dir string) (*domain.BatchResult, error) {
	paths, err := p.listFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	logger.Info("Processing %d files in %s", len(paths), dir)

	type outcome struct {
		record *domain.DocumentRecord
		err    error
	}
	outcomes := make([]outcome, len(paths))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			record, err := p.ProcessDocument(ctx, path, domain.PageRange{})
			outcomes[i] = outcome{record: record, err: err}
		}(i, path)
	}
	wg.Wait()

	result := &domain.BatchResult{
		Records:  []domain.DocumentRecord{},
		Failures: []domain.DocumentFailure{},
	}
	for i, o := range outcomes {
		switch {
		case o.record != nil:
			result.Records = append(result.Records, *o.record)
		case o.err != nil:
			failure := newFailure(paths[i], o.err)
			logger.Warn("Skipping %s: %s failed: %s", failure.URI, failure.Stage, failure.Reason)
			result.Failures = append(result.Failures, failure)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	totals := result.Totals()
	logger.Info("Processed %d of %d files (%d failed), %d of %d chunks kept",
		result.Processed(), len(paths), len(result.Failures),
		totals.FilteredChunkCount, totals.InitialChunkCount)
	return result, nil
}

// RemoveDocument drops a document's vectors, chunks and record.
func (p *DocumentPipeline) RemoveDocument(ctx context.Context, documentID string) error {
	if _, err := p.docStore.GetDocument(ctx, documentID); err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if p.vectorIndex != nil {
		if _, err := p.vectorIndex.RemoveDocument(ctx, documentID); err != nil {
			return fmt.Errorf("remove vectors: %w", err)
		}
	}
	if err := p.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// RemoveByURI removes the document ingested from path, if any.
// It reports whether a document was removed.
func (p *DocumentPipeline) RemoveByURI(ctx context.Context, path string) (bool, error) {
	uri, err := filepath.Abs(path)
	if err != nil {
		uri = path
	}
	unlock := p.lockURI(uri)
	defer unlock()

	doc, err := p.docStore.GetDocumentByURI(ctx, uri)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get document: %w", err)
	}
	if err := p.RemoveDocument(ctx, doc.ID); err != nil {
		return false, err
	}
	return true, nil
}

// extract reads metadata and text, adding the content hash and page range.
func (p *DocumentPipeline) extract(
	ctx context.Context,
	uri string,
	pages domain.PageRange,
) (map[string]any, string, error) {
	extractor, err := p.extractors.ForPath(uri)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	metadata, err := extractor.Metadata(ctx, uri)
	if err != nil {
		return nil, "", asExtraction(err)
	}
	text, err := extractor.Extract(ctx, uri, pages)
	if err != nil {
		return nil, "", asExtraction(err)
	}

	hash, err := FileHash(uri)
	if err != nil {
		return nil, "", asExtraction(err)
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata[MetaContentHash] = hash
	metadata[MetaPageRange] = pages.String()
	return metadata, text, nil
}

// newDocument builds the document for uri, keeping the ID and creation time
// of a previously ingested version.
func (p *DocumentPipeline) newDocument(
	ctx context.Context,
	uri, content string,
	metadata map[string]any,
) (doc, previous *domain.Document, err error) {
	now := time.Now().UTC()
	doc = &domain.Document{
		ID:        uuid.New().String(),
		URI:       uri,
		Title:     documentTitle(uri, metadata),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	previous, err = p.docStore.GetDocumentByURI(ctx, uri)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return doc, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("%w: look up previous version: %w", domain.ErrIndex, err)
	}
	doc.ID = previous.ID
	doc.CreatedAt = previous.CreatedAt
	return doc, previous, nil
}

// embed attaches one vector per chunk.
func (p *DocumentPipeline) embed(ctx context.Context, chunks []domain.Chunk) error {
	if p.embeddingService == nil || p.vectorIndex == nil || len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := p.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	dim := p.vectorIndex.Dimension()
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: chunk %d has dimension %d, index expects %d",
				domain.ErrEmbedding, i, len(v), dim)
		}
		chunks[i].Embedding = v
	}
	return nil
}

// store saves and indexes doc. New vectors go in first and the previous
// version's vectors are dropped by chunk ID last, so any failure leaves the
// previous version searchable and its content hash unchanged.
func (p *DocumentPipeline) store(
	ctx context.Context,
	doc, previous *domain.Document,
	chunks []domain.Chunk,
) error {
	var staleIDs []string
	if previous != nil && p.vectorIndex != nil {
		old, err := p.docStore.GetChunks(ctx, previous.ID)
		if err != nil {
			return fmt.Errorf("%w: load previous chunks: %w", domain.ErrIndex, err)
		}
		staleIDs = chunkIDs(old)
	}

	var addedIDs []string
	if p.vectorIndex != nil && p.embeddingService != nil && len(chunks) > 0 {
		entries := make([]driven.VectorEntry, len(chunks))
		for i := range chunks {
			entries[i] = driven.VectorEntry{
				Vector:     chunks[i].Embedding,
				ChunkID:    chunks[i].ID,
				DocumentID: doc.ID,
			}
		}
		if _, err := p.vectorIndex.Add(ctx, entries); err != nil {
			return fmt.Errorf("add vectors: %w", err)
		}
		addedIDs = chunkIDs(chunks)
	}

	if err := p.save(ctx, doc, previous, chunks); err != nil {
		if len(addedIDs) > 0 {
			if _, rerr := p.vectorIndex.RemoveChunks(ctx, addedIDs); rerr != nil {
				logger.Warn("%s: discard new vectors: %v", doc.URI, rerr)
			}
		}
		return err
	}

	if len(staleIDs) > 0 {
		removed, err := p.vectorIndex.RemoveChunks(ctx, staleIDs)
		if err != nil {
			return fmt.Errorf("remove previous vectors: %w", err)
		}
		logger.Debug("%s: replaced previous version (%d vectors)", doc.URI, removed)
	}
	return nil
}

// save writes doc and its chunks. If the chunks cannot be written the
// document row is put back the way it was.
func (p *DocumentPipeline) save(
	ctx context.Context,
	doc, previous *domain.Document,
	chunks []domain.Chunk,
) error {
	if err := p.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("%w: save document: %w", domain.ErrIndex, err)
	}
	if err := p.docStore.SaveChunks(ctx, doc.ID, chunks); err != nil {
		var rerr error
		if previous != nil {
			rerr = p.docStore.SaveDocument(ctx, previous)
		} else {
			rerr = p.docStore.DeleteDocument(ctx, doc.ID)
		}
		if rerr != nil {
			logger.Warn("%s: restore document: %v", doc.URI, rerr)
		}
		return fmt.Errorf("%w: save chunks: %w", domain.ErrIndex, err)
	}
	return nil
}

func chunkIDs(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	return ids
}

// listFiles returns the supported files under dir, sorted by path.
// Hidden files and directories are skipped.
func (p *DocumentPipeline) listFiles(dir string) ([]string, error) {
	var paths []string

	if !p.recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.Type().IsRegular() && !isHidden(path) && p.extractors.Supports(path) {
				paths = append(paths, path)
			}
		}
		return paths, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && p.extractors.Supports(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// lockURI returns the unlock function of the per-URI mutex.
func (p *DocumentPipeline) lockURI(uri string) func() {
	v, _ := p.uriLocks.LoadOrStore(uri, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// FileHash returns the hex sha256 of a file's bytes.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func asExtraction(err error) error {
	if errors.Is(err, domain.ErrExtraction) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrExtraction, err)
}

func newRecord(doc *domain.Document, chunks []domain.Chunk, initial int) *domain.DocumentRecord {
	record := &domain.DocumentRecord{
		Metadata: doc.Metadata,
		Chunks:   make([]domain.RecordChunk, len(chunks)),
		Stats: domain.DocumentStats{
			InitialChunkCount:  initial,
			FilteredChunkCount: len(chunks),
		},
	}
	for i := range chunks {
		embedding := chunks[i].Embedding
		if embedding == nil {
			// Without an embedder the output carries [] rather than null.
			embedding = []float32{}
		}
		record.Chunks[i] = domain.RecordChunk{
			ID:        chunks[i].Position,
			Text:      chunks[i].Content,
			Embedding: embedding,
		}
	}
	return record
}

func newFailure(path string, err error) domain.DocumentFailure {
	failure := domain.DocumentFailure{
		URI:    path,
		Stage:  domain.FailedStage(err),
		Reason: err.Error(),
	}
	var se *domain.StageError
	if errors.As(err, &se) {
		failure.URI = se.URI
		failure.Reason = se.Err.Error()
	}
	return failure
}
