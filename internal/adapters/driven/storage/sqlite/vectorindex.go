package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

const metaDimension = "dimension"

// VectorIndex is a durable exact nearest-neighbour index. Distances are
// computed by vec_l2 inside SQLite, so every search scans all live rows.
type VectorIndex struct {
	store *Store
	dim   int

	// mu serializes inserts so ordinals are assigned without gaps.
	mu sync.Mutex
}

// VectorIndex opens the vector index for the given dimension. The first
// call records the dimension; later calls with a different one fail.
func (s *Store) VectorIndex(dim int) (*VectorIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrIndex, dim)
	}

	var stored string
	err := s.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaDimension).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO index_meta (key, value) VALUES (?, ?)",
			metaDimension, strconv.Itoa(dim)); err != nil {
			return nil, fmt.Errorf("recording index dimension: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading index dimension: %w", err)
	default:
		existing, convErr := strconv.Atoi(stored)
		if convErr != nil {
			return nil, fmt.Errorf("%w: corrupt stored dimension %q", domain.ErrIndex, stored)
		}
		if existing != dim {
			return nil, fmt.Errorf("%w: index has dimension %d, requested %d", domain.ErrIndex, existing, dim)
		}
	}

	return &VectorIndex{store: s, dim: dim}, nil
}

// Dimension returns the configured vector length.
func (v *VectorIndex) Dimension() int {
	return v.dim
}

// Add appends entries in one transaction and returns their ordinals.
func (v *VectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) ([]int, error) {
	for i, e := range entries {
		if len(e.Vector) != v.dim {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, want %d", domain.ErrIndex, i, len(e.Vector), v.dim)
		}
	}
	if len(entries) == 0 {
		return []int{}, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndex, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(ordinal) + 1, 0) FROM vectors").Scan(&next); err != nil {
		return nil, fmt.Errorf("%w: reading next ordinal: %v", domain.ErrIndex, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO vectors (ordinal, chunk_id, document_id, embedding) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("%w: preparing insert: %v", domain.ErrIndex, err)
	}
	defer stmt.Close()

	ordinals := make([]int, len(entries))
	for i, e := range entries {
		ordinal := next + i
		if _, err := stmt.ExecContext(ctx, ordinal, e.ChunkID, e.DocumentID, encodeVector(e.Vector)); err != nil {
			return nil, fmt.Errorf("%w: inserting vector: %v", domain.ErrIndex, err)
		}
		ordinals[i] = ordinal
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing vectors: %v", domain.ErrIndex, err)
	}
	return ordinals, nil
}

// Search returns up to k nearest live entries.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != v.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d", domain.ErrIndex, len(query), v.dim)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT ordinal, chunk_id, document_id, vec_l2(embedding, ?) AS distance
		FROM vectors
		WHERE removed = 0
		ORDER BY distance, ordinal
		LIMIT ?
	`, encodeVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("%w: searching: %v", domain.ErrIndex, err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0, k)
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(&hit.Ordinal, &hit.ChunkID, &hit.DocumentID, &hit.Distance); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %v", domain.ErrIndex, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: searching: %v", domain.ErrIndex, err)
	}
	return hits, nil
}

// RemoveDocument tombstones every live entry of a document.
func (v *VectorIndex) RemoveDocument(ctx context.Context, documentID string) (int, error) {
	res, err := v.store.db.ExecContext(ctx,
		"UPDATE vectors SET removed = 1, embedding = NULL WHERE document_id = ? AND removed = 0", documentID)
	if err != nil {
		return 0, fmt.Errorf("%w: removing vectors: %v", domain.ErrIndex, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: removing vectors: %v", domain.ErrIndex, err)
	}
	return int(n), nil
}

// RemoveChunks tombstones the live entries of the given chunks in one
// transaction.
func (v *VectorIndex) RemoveChunks(ctx context.Context, chunkIDs []string) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndex, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE vectors SET removed = 1, embedding = NULL WHERE chunk_id = ? AND removed = 0")
	if err != nil {
		return 0, fmt.Errorf("%w: preparing removal: %v", domain.ErrIndex, err)
	}
	defer stmt.Close()

	var removed int64
	for _, id := range chunkIDs {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("%w: removing vectors: %v", domain.ErrIndex, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%w: removing vectors: %v", domain.ErrIndex, err)
		}
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing removal: %v", domain.ErrIndex, err)
	}
	return int(removed), nil
}

// Len returns the number of live entries. Errors count as empty.
func (v *VectorIndex) Len() int {
	var n int
	if err := v.store.db.QueryRow("SELECT COUNT(*) FROM vectors WHERE removed = 0").Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close is a no-op; the owning Store closes the database.
func (v *VectorIndex) Close() error {
	return nil
}
