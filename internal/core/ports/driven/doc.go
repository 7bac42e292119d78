// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Turns file bytes of one format into text
//   - ExtractorRegistry: Selects the extractor for a declared file type
//   - Chunker: Splits extracted text into ordered chunks
//   - DocumentStore: Document persistence and status updates
//   - ChunkStore: Chunk persistence
//   - EmbeddingStore: Embedding persistence and gap detection
//   - VectorIndex: Scoped similarity search over stored embeddings
//   - EmbeddingService: Generates vector embeddings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AssistedExtractor: AI-assisted extraction. Without it, standard extractors are used.
//   - QueryCache: Caches query embeddings. Without it, every query is embedded.
//   - TaskDispatcher: Background task queue. Without it, work runs inline.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
