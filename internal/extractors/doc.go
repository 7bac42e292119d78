// Package extractors provides implementations of the Extractor interface
// for the document formats teachers upload. Each extractor knows how to
// turn the bytes of one family of formats into flat text plus structural
// metadata (pages, slides, paragraphs, sheets).
//
// Extractors are registered with a Registry at startup; see RegisterDefaults.
package extractors
