// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - Extractor / ExtractorRegistry: Reads text and metadata from files
//   - Cleaner: Applies the strict text cleaning policy
//   - Classifier: Scores candidate chunks for the segmenter
//   - LexicalAnnotator: Annotates tokens for the segment filter
//   - PostProcessor: Segmenter and filter stages
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Exact nearest-neighbour storage and search
//   - DocumentStore: Document and chunk persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ResultWriter: Batch export. Without it, results are only returned.
//   - ConfigStore: Application configuration. Without it, defaults apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser or post-processor package
package driven
