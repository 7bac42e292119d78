package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType is the declared format of an uploaded file.
type FileType string

// Supported file types.
const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeDOC  FileType = "doc"
	FileTypePPTX FileType = "pptx"
	FileTypePPT  FileType = "ppt"
	FileTypeTXT  FileType = "txt"
	FileTypeMD   FileType = "md"
	FileTypeHTML FileType = "html"
	FileTypeXLSX FileType = "xlsx"
)

// FileTypeFromName derives a FileType from a file name's extension.
// The result is not validated against the supported set.
func FileTypeFromName(name string) FileType {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	switch ext := strings.ToLower(ext); ext {
	case "htm":
		return FileTypeHTML
	case "markdown":
		return FileTypeMD
	default:
		return FileType(ext)
	}
}

// String returns the string representation.
func (t FileType) String() string {
	return string(t)
}

// Document is a unit of uploaded source material.
// It is created in StatusUploaded and mutated only by the pipeline.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title, used as the citation label.
	Title string

	// FileName is the name the file was uploaded with.
	FileName string

	// FileType is the declared format used to pick an extractor.
	FileType FileType

	// FileHash is the hex sha256 of the uploaded bytes.
	FileHash string

	// TeacherID identifies the uploader.
	TeacherID string

	// ModuleID is the retrieval scope the document belongs to.
	ModuleID string

	// StoragePath is where the original bytes are kept.
	StoragePath string

	// IsTestBank marks question-bank sources. These are never used as
	// retrieval context.
	IsTestBank bool

	// Status is the current processing state.
	Status ProcessingStatus

	// Metadata holds stage timestamps, counts and error details.
	Metadata ProcessingMetadata

	// UploadedAt is when the document was created.
	UploadedAt time.Time

	// UpdatedAt is when the document was last changed.
	UpdatedAt time.Time
}

// IsReady reports whether the document can be used for retrieval.
func (d *Document) IsReady() bool {
	return d.Status == StatusIndexed
}

// HasError reports whether processing failed.
func (d *Document) HasError() bool {
	return d.Status == StatusFailed
}

// Retrievable reports whether the document may contribute context.
func (d *Document) Retrievable() bool {
	return d.IsReady() && !d.IsTestBank
}

// Chunk is an ordered slice of a document's extracted text.
// Chunks are immutable once created.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the zero-based position within the document.
	// Indices are contiguous and unique per document.
	Index int

	// Text is the exact chunk content.
	Text string

	// Size is the character length of Text.
	Size int

	// Start is the character offset of Text in the extracted text.
	Start int

	// End is the exclusive end offset.
	End int

	// Metadata contains offsets, overlap and strategy-specific keys.
	Metadata map[string]any
}

// Embedding is the vector representation of exactly one Chunk.
type Embedding struct {
	// ID is the unique identifier for the embedding.
	ID string

	// ChunkID links to the embedded Chunk. At most one embedding per chunk.
	ChunkID string

	// DocumentID is denormalised for scoped search.
	DocumentID string

	// Vector is the embedding values.
	Vector []float32

	// Dimensions is len(Vector), stored for validation.
	Dimensions int

	// Model is the provider model that generated the vector.
	Model string

	// TokenCount is the approximate tokens used for this chunk.
	TokenCount int

	// CreatedAt is when the embedding was stored.
	CreatedAt time.Time
}

// DocumentFilter narrows ListDocuments results.
// Zero values do not filter.
type DocumentFilter struct {
	// ModuleID restricts to one module.
	ModuleID string

	// TeacherID restricts to one uploader.
	TeacherID string

	// Statuses restricts to documents in any of these states.
	Statuses []ProcessingStatus

	// ExcludeTestBank drops question-bank sources.
	ExcludeTestBank bool
}

// Matches reports whether doc passes the filter.
func (f DocumentFilter) Matches(doc *Document) bool {
	if f.ModuleID != "" && doc.ModuleID != f.ModuleID {
		return false
	}
	if f.TeacherID != "" && doc.TeacherID != f.TeacherID {
		return false
	}
	if f.ExcludeTestBank && doc.IsTestBank {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if doc.Status == s {
			return true
		}
	}
	return false
}

// EmbeddingGap describes a document with chunks that lack embeddings.
type EmbeddingGap struct {
	DocumentID     string
	ChunkCount     int
	EmbeddingCount int
}

// Missing returns the number of chunks without an embedding.
func (g EmbeddingGap) Missing() int {
	return g.ChunkCount - g.EmbeddingCount
}

// RetryReport summarises an embedding retry pass.
type RetryReport struct {
	// Checked is the number of documents with missing embeddings.
	Checked int `json:"checked"`

	// Created is the number of embeddings created across all documents.
	Created int `json:"created"`

	// Completed lists documents that became fully embedded.
	Completed []string `json:"completed"`

	// Incomplete lists documents still missing embeddings.
	Incomplete []string `json:"incomplete"`
}
