// Package flat provides an exact in-memory vector index.
//
// Search is brute force over every live entry; no approximation is made.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	vector     search.Float32s
	chunkID    string
	documentID string
	removed    bool
}

// Index stores vectors in insertion order. The position in entries is the
// ordinal; removed entries stay as tombstones so ordinals are never reused.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	live      int
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrIndex, dimension)
	}
	return &Index{dimension: dimension}, nil
}

// Dimension returns the configured vector length.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Add appends entries and returns their ordinals. Vectors are copied.
func (idx *Index) Add(_ context.Context, entries []driven.VectorEntry) ([]int, error) {
	for i, e := range entries {
		if len(e.Vector) != idx.dimension {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, index expects %d",
				domain.ErrIndex, i, len(e.Vector), idx.dimension)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ordinals := make([]int, len(entries))
	for i, e := range entries {
		vec := make(search.Float32s, len(e.Vector))
		copy(vec, e.Vector)
		ordinals[i] = len(idx.entries)
		idx.entries = append(idx.entries, entry{
			vector:     vec,
			chunkID:    e.ChunkID,
			documentID: e.DocumentID,
		})
	}
	idx.live += len(entries)
	return ordinals, nil
}

// Search returns the k live entries nearest to query.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrIndex, len(query), idx.dimension)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	h := make(neighbors, 0, min(k, idx.live))
	for ord, e := range idx.entries {
		if e.removed {
			continue
		}
		if ord%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		n := neighbor{ordinal: ord, distance: e.vector.EuclideanDistance(query)}
		if h.Len() < k {
			heap.Push(&h, n)
			continue
		}
		if worse(h[0], n) {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}

	hits := make([]driven.VectorHit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		n := heap.Pop(&h).(neighbor)
		e := idx.entries[n.ordinal]
		hits[i] = driven.VectorHit{
			Ordinal:    n.ordinal,
			Distance:   float64(n.distance),
			ChunkID:    e.chunkID,
			DocumentID: e.documentID,
		}
	}
	return hits, nil
}

// RemoveDocument tombstones every live entry of documentID.
func (idx *Index) RemoveDocument(_ context.Context, documentID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for i := range idx.entries {
		e := &idx.entries[i]
		if e.removed || e.documentID != documentID {
			continue
		}
		e.removed = true
		e.vector = nil
		removed++
	}
	idx.live -= removed
	return removed, nil
}

// RemoveChunks tombstones every live entry whose chunk is in chunkIDs.
func (idx *Index) RemoveChunks(_ context.Context, chunkIDs []string) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}
	wanted := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		wanted[id] = struct{}{}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for i := range idx.entries {
		e := &idx.entries[i]
		if e.removed {
			continue
		}
		if _, ok := wanted[e.chunkID]; !ok {
			continue
		}
		e.removed = true
		e.vector = nil
		removed++
	}
	idx.live -= removed
	return removed, nil
}

// Len returns the number of live entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.live
}

// Close releases the stored vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.live = 0
	return nil
}
