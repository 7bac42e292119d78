// Package domain defines the core business entities for the ingestion
// and retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded course file and its processing state
//   - Chunk: An ordered slice of a document's extracted text
//   - Embedding: The vector for exactly one chunk
//   - Stage: Per-status metadata recorded by the status tracker
//   - ContextResult: Ranked, provenance-tagged grounding material
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
