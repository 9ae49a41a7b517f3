// Package sqlite provides durable storage for documents, chunks and the
// vector index on a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One Store exposes:
//
//   - DocumentStore: document and chunk persistence
//   - VectorIndex: exact nearest-neighbour search computed in SQL
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Distance
//
// Embeddings are stored as little-endian float32 BLOBs. Search ranks rows
// with the vec_l2 scalar function, registered with the driver before the
// first connection is opened.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-ingest/data/ingest.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode; vector inserts are additionally serialized so ordinals
// stay dense.
package sqlite
