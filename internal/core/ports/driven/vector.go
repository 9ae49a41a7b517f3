package driven

import "context"

// VectorIndex stores fixed-dimension vectors and answers exact
// k-nearest-neighbour queries by Euclidean distance.
//
// Each inserted vector receives an ordinal equal to its insertion
// position. Ordinals are never reused, including after removal.
type VectorIndex interface {
	// Dimension returns the configured vector length.
	Dimension() int

	// Add appends entries in order and returns their ordinals.
	// A dimension mismatch rejects the whole call with domain.ErrIndex.
	Add(ctx context.Context, entries []VectorEntry) ([]int, error)

	// Search returns up to k entries nearest to query, ascending by
	// distance with ties broken by the lower ordinal.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// RemoveDocument drops every entry of a document and returns how many
	// were removed.
	RemoveDocument(ctx context.Context, documentID string) (int, error)

	// RemoveChunks drops the live entries referencing any of chunkIDs and
	// returns how many were removed.
	RemoveChunks(ctx context.Context, chunkIDs []string) (int, error)

	// Len returns the number of live entries.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorEntry is a vector paired with an opaque chunk reference.
type VectorEntry struct {
	// Vector is the embedding.
	Vector []float32

	// ChunkID references the chunk the vector was computed from.
	ChunkID string

	// DocumentID references the owning document.
	DocumentID string
}

// VectorHit represents a nearest-neighbour result.
type VectorHit struct {
	// Ordinal is the insertion position of the matched vector.
	Ordinal int

	// Distance is the Euclidean distance to the query.
	Distance float64

	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string
}
