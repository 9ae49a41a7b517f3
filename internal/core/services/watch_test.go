package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// stubIngester records watcher calls.
type stubIngester struct {
	mu        sync.Mutex
	processed []string
	removed   []string
	err       error
}

func (s *stubIngester) Supports(path string) bool {
	return filepath.Ext(path) == ".txt"
}

func (s *stubIngester) ProcessDocument(_ context.Context, path string, _ domain.PageRange) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, path)
	if s.err != nil {
		return nil, &domain.StageError{Stage: domain.StageExtracted, URI: path, Err: s.err}
	}
	return &domain.DocumentRecord{}, nil
}

func (s *stubIngester) RemoveByURI(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, path)
	return true, nil
}

func (s *stubIngester) snapshot() (processed, removed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.processed...), append([]string(nil), s.removed...)
}

func newTestWatcher(ingester *stubIngester) *WatchService {
	w := newWatchService(ingester, memory.NewDocumentStore(), false)
	w.debounce = 10 * time.Millisecond
	return w
}

func TestWatchService_DebouncesWrites(t *testing.T) {
	ingester := &stubIngester{}
	w := newTestWatcher(ingester)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "a.txt", "content")

	for range 5 {
		w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})
	}
	w.wg.Wait()

	processed, _ := ingester.snapshot()
	assert.Equal(t, []string{path}, processed)
}

func TestWatchService_IgnoresUnsupportedAndHidden(t *testing.T) {
	ingester := &stubIngester{}
	w := newTestWatcher(ingester)
	ctx := context.Background()
	dir := t.TempDir()

	w.handleEvent(ctx, fsnotify.Event{Name: filepath.Join(dir, "image.png"), Op: fsnotify.Create})
	w.handleEvent(ctx, fsnotify.Event{Name: filepath.Join(dir, ".swap.txt"), Op: fsnotify.Write})
	w.handleEvent(ctx, fsnotify.Event{Name: filepath.Join(dir, "a.txt"), Op: fsnotify.Chmod})
	w.wg.Wait()

	processed, removed := ingester.snapshot()
	assert.Empty(t, processed)
	assert.Empty(t, removed)
}

func TestWatchService_RemoveCancelsPending(t *testing.T) {
	ingester := &stubIngester{}
	w := newTestWatcher(ingester)
	w.debounce = time.Hour
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "a.txt")

	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Remove})
	w.wg.Wait()

	processed, removed := ingester.snapshot()
	assert.Empty(t, processed)
	assert.Equal(t, []string{path}, removed)
}

func TestWatchService_WaitStopsPendingTimers(t *testing.T) {
	ingester := &stubIngester{}
	w := newTestWatcher(ingester)
	w.debounce = time.Hour
	path := filepath.Join(t.TempDir(), "a.txt")

	w.handleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.wait()

	processed, _ := ingester.snapshot()
	assert.Empty(t, processed)
	assert.Empty(t, w.pending)
}

func TestWatchService_SkipsUnchangedContent(t *testing.T) {
	ingester := &stubIngester{}
	docStore := memory.NewDocumentStore()
	w := newWatchService(ingester, docStore, false)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "a.txt", "same bytes")

	uri, err := filepath.Abs(path)
	require.NoError(t, err)
	hash, err := FileHash(path)
	require.NoError(t, err)
	_ = docStore.SaveDocument(ctx, &domain.Document{
		ID:       "doc-1",
		URI:      uri,
		Metadata: map[string]any{MetaContentHash: hash},
	})

	w.process(ctx, path)
	processed, _ := ingester.snapshot()
	assert.Empty(t, processed)

	require.NoError(t, os.WriteFile(path, []byte("new bytes"), 0644))
	w.process(ctx, path)
	processed, _ = ingester.snapshot()
	assert.Equal(t, []string{path}, processed)
}

func TestWatchService_ProcessFailureIsLogged(t *testing.T) {
	ingester := &stubIngester{err: errors.New("broken file")}
	w := newTestWatcher(ingester)
	path := writeFile(t, t.TempDir(), "a.txt", "x")

	w.process(context.Background(), path)

	processed, _ := ingester.snapshot()
	assert.Equal(t, []string{path}, processed)
}

func TestWatchService_ProcessSkipsAfterCancel(t *testing.T) {
	ingester := &stubIngester{}
	w := newTestWatcher(ingester)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.process(ctx, writeFile(t, t.TempDir(), "a.txt", "x"))

	processed, _ := ingester.snapshot()
	assert.Empty(t, processed)
}

func TestWatchService_WatchIndexesNewFiles(t *testing.T) {
	f := newPipelineFixture(t, fixtureOptions{})
	w := NewWatchService(f.pipeline, f.store, true)
	w.debounce = 20 * time.Millisecond
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, dir) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	path := writeFile(t, dir, "note.txt", "A watched file.")
	uri, err := filepath.Abs(path)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := f.store.GetDocumentByURI(context.Background(), uri)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, err := f.store.GetDocumentByURI(context.Background(), uri)
		return errors.Is(err, domain.ErrNotFound)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchService_MissingDirectory(t *testing.T) {
	w := newTestWatcher(&stubIngester{})

	err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
