package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// DefaultDebounce is how long a path must stay quiet before it is processed.
const DefaultDebounce = 300 * time.Millisecond

// documentIngester is the part of DocumentPipeline the watcher drives.
type documentIngester interface {
	Supports(path string) bool
	ProcessDocument(ctx context.Context, path string, pages domain.PageRange) (*domain.DocumentRecord, error)
	RemoveByURI(ctx context.Context, path string) (bool, error)
}

// WatchService keeps the index in sync with a directory tree.
type WatchService struct {
	pipeline  documentIngester
	docStore  driven.DocumentStore
	recursive bool
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewWatchService creates a watcher driving the given pipeline.
// docStore is used to skip files whose content hash is unchanged.
func NewWatchService(pipeline *DocumentPipeline, docStore driven.DocumentStore, recursive bool) *WatchService {
	return newWatchService(pipeline, docStore, recursive)
}

func newWatchService(pipeline documentIngester, docStore driven.DocumentStore, recursive bool) *WatchService {
	return &WatchService{
		pipeline:  pipeline,
		docStore:  docStore,
		recursive: recursive,
		debounce:  DefaultDebounce,
		pending:   make(map[string]*time.Timer),
	}
}

// Watch blocks until ctx is cancelled. Supported files that are created or
// written are re-processed after a quiet period; removed or renamed files
// are dropped from the index.
func (w *WatchService) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addDirs(watcher, dir); err != nil {
		return err
	}
	logger.Info("Watching %s", dir)

	defer w.wait()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching %s", dir)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.recursive && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(event.Name) {
					if err := w.addDirs(watcher, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			w.handleEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

// addDirs registers dir, and its subdirectories when recursive.
func (w *WatchService) addDirs(watcher *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent schedules work for one filesystem event.
func (w *WatchService) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if isHidden(path) || !w.pipeline.Supports(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(path)
		w.remove(ctx, path)
	}
}

// schedule (re)starts the quiet-period timer for path.
func (w *WatchService) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.process(ctx, path)
	})
	w.pending[path] = t
}

func (w *WatchService) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

// wait stops pending timers and waits for running ones.
func (w *WatchService) wait() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// process re-ingests path unless its content hash is unchanged.
func (w *WatchService) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	if w.unchanged(ctx, path) {
		logger.Debug("watch: %s unchanged", path)
		return
	}

	record, err := w.pipeline.ProcessDocument(ctx, path, domain.PageRange{})
	if err != nil {
		failure := newFailure(path, err)
		logger.Warn("watch: %s: %s failed: %s", failure.URI, failure.Stage, failure.Reason)
		return
	}
	logger.Info("Indexed %s (%d chunks)", path, len(record.Chunks))
}

func (w *WatchService) remove(ctx context.Context, path string) {
	removed, err := w.pipeline.RemoveByURI(ctx, path)
	if err != nil {
		logger.Warn("watch: remove %s: %v", path, err)
		return
	}
	if removed {
		logger.Info("Removed %s", path)
	}
}

// unchanged reports whether the stored version of path has the same hash.
func (w *WatchService) unchanged(ctx context.Context, path string) bool {
	if w.docStore == nil {
		return false
	}
	uri, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	doc, err := w.docStore.GetDocumentByURI(ctx, uri)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Debug("watch: look up %s: %v", uri, err)
		}
		return false
	}
	stored, _ := doc.Metadata[MetaContentHash].(string)
	if stored == "" {
		return false
	}
	current, err := FileHash(uri)
	return err == nil && current == stored
}
