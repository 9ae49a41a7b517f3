// Package domain defines the core business entities for sercha-ingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document with metadata
//   - Chunk: A segmented, filtered unit of a document
//   - Token: A lexically annotated token used by the segment filter
//   - DocumentRecord: The exported result of one processed document
//   - Stage: The pipeline state of a document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
