package domain

// SearchOptions configures a similarity query.
type SearchOptions struct {
	// Limit is the maximum number of results (k).
	Limit int
}

// SearchResult represents a single nearest-neighbour hit.
type SearchResult struct {
	// Document is the document owning the chunk.
	Document Document

	// Chunk is the matched chunk.
	Chunk Chunk

	// Ordinal is the index ordinal of the matched vector.
	Ordinal int

	// Distance is the Euclidean distance to the query. Lower is closer.
	Distance float64
}
