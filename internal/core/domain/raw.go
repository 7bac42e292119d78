package domain

// Upload is a file handed to the pipeline by a collaborator.
// It is the input before a Document exists.
type Upload struct {
	// Title is the display title. Defaults to the file name.
	Title string

	// FileName is the original name of the file.
	FileName string

	// FileType is the declared format. Derived from FileName when empty.
	FileType FileType

	// Content is the raw bytes.
	Content []byte

	// TeacherID identifies the uploader.
	TeacherID string

	// ModuleID is the retrieval scope.
	ModuleID string

	// StoragePath is where the caller stored the original bytes.
	StoragePath string

	// IsTestBank marks question-bank sources.
	IsTestBank bool
}

// Extraction is the output of a text extractor.
type Extraction struct {
	// Text is the flat extracted text.
	Text string

	// Metadata holds format-specific structure (pages, slides, paragraphs).
	Metadata map[string]any

	// Method records which extraction path produced Text.
	Method ExtractionMethod
}

// ExtractionMethod identifies how text was extracted.
type ExtractionMethod string

// Extraction methods.
const (
	ExtractionStandard   ExtractionMethod = "standard"
	ExtractionAIAssisted ExtractionMethod = "ai_assisted"
)

// ExtractOptions configures a single extraction.
type ExtractOptions struct {
	// Assisted asks for AI-assisted extraction when available.
	// Failures fall back to the standard extractor silently.
	Assisted bool
}
