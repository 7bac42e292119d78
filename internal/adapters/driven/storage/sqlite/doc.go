// Package sqlite provides a SQLite implementation of driven.Store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database holds documents, chunks and
// embeddings:
//
//   - DocumentStore: documents with their processing status and metadata
//   - ChunkStore: ordered chunks per document
//   - EmbeddingStore: one little-endian float32 vector per chunk
//   - VectorIndex: linear cosine scan over stored embeddings
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Deleting a document cascades to its chunks and embeddings.
//
// # Data Location
//
// By default, the database is stored at ~/.aipilot/data/aipilot.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
