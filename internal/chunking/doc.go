// Package chunking builds text chunkers from configuration.
//
// Strategies live in sub-packages (fixed, sentence) and are registered by
// name. Every strategy returns chunks with contiguous indices from 0, so
// callers can switch strategy without changing how chunks are stored.
package chunking
