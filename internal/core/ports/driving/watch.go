package driving

import "context"

// WatchService keeps the index in sync with a directory.
type WatchService interface {
	// Watch blocks until ctx is cancelled, re-processing files that are
	// created or written and removing files that are deleted.
	Watch(ctx context.Context, dir string) error
}
