package domain

// Stage is the metadata recorded when a document enters a status.
// The set of variants is closed: one type per ProcessingStatus.
// Fields returns the JSON-like keys merged into Document.Metadata.
type Stage interface {
	Status() ProcessingStatus
	Fields() map[string]any
	isStage()
}

// UploadedStage is recorded when a document is created or reset for re-processing.
type UploadedStage struct {
	// Reason is set when the document was reset by a retry.
	Reason string
}

func (UploadedStage) Status() ProcessingStatus { return StatusUploaded }
func (UploadedStage) isStage()                 {}

func (s UploadedStage) Fields() map[string]any {
	if s.Reason == "" {
		return nil
	}
	return map[string]any{"retry_reason": s.Reason}
}

// ExtractingStage is recorded when text extraction starts.
type ExtractingStage struct{}

func (ExtractingStage) Status() ProcessingStatus { return StatusExtracting }
func (ExtractingStage) Fields() map[string]any   { return nil }
func (ExtractingStage) isStage()                 {}

// ExtractedStage is recorded after text extraction.
type ExtractedStage struct {
	CharCount int
	Method    ExtractionMethod
	// Details is the extractor's structural metadata (pages, slides, ...).
	Details map[string]any
}

func (ExtractedStage) Status() ProcessingStatus { return StatusExtracted }
func (ExtractedStage) isStage()                 {}

func (s ExtractedStage) Fields() map[string]any {
	out := make(map[string]any, len(s.Details)+2)
	for k, v := range s.Details {
		out[k] = v
	}
	out["char_count"] = s.CharCount
	if s.Method != "" {
		out["extraction_method"] = string(s.Method)
	}
	return out
}

// ChunkingStage is recorded when chunking starts.
type ChunkingStage struct {
	Strategy string
	Size     int
	Overlap  int
}

func (ChunkingStage) Status() ProcessingStatus { return StatusChunking }
func (ChunkingStage) isStage()                 {}

func (s ChunkingStage) Fields() map[string]any {
	return map[string]any{
		"chunk_strategy": s.Strategy,
		"chunk_size":     s.Size,
		"chunk_overlap":  s.Overlap,
	}
}

// ChunkedStage is recorded after chunks are persisted.
type ChunkedStage struct {
	ChunkCount   int
	TotalChars   int
	AvgChunkSize int
	// EmbeddingError is set when an embedding pass produced nothing.
	EmbeddingError string
}

func (ChunkedStage) Status() ProcessingStatus { return StatusChunked }
func (ChunkedStage) isStage()                 {}

func (s ChunkedStage) Fields() map[string]any {
	out := map[string]any{"chunk_count": s.ChunkCount}
	if s.TotalChars > 0 {
		out["total_chars"] = s.TotalChars
		out["avg_chunk_size"] = s.AvgChunkSize
	}
	if s.EmbeddingError != "" {
		out["embedding_error"] = s.EmbeddingError
	}
	return out
}

// EmbeddingStage is recorded when embedding generation starts.
type EmbeddingStage struct {
	// Pending is the number of chunks without a vector at start.
	Pending int
}

func (EmbeddingStage) Status() ProcessingStatus { return StatusEmbedding }
func (EmbeddingStage) isStage()                 {}

func (s EmbeddingStage) Fields() map[string]any {
	return map[string]any{"embedding_pending": s.Pending}
}

// EmbeddedStage is recorded after an embedding pass that stored vectors.
// Partial is true when some chunks are still missing a vector.
type EmbeddedStage struct {
	Count         int
	Model         string
	FailedBatches int
	Missing       int
}

func (EmbeddedStage) Status() ProcessingStatus { return StatusEmbedded }
func (EmbeddedStage) isStage()                 {}

// Partial reports whether chunks are still missing vectors.
func (s EmbeddedStage) Partial() bool {
	return s.Missing > 0
}

func (s EmbeddedStage) Fields() map[string]any {
	return map[string]any{
		"embedding_count":      s.Count,
		"embedding_model":      s.Model,
		"failed_batches":       s.FailedBatches,
		"missing_embeddings":   s.Missing,
		"embedding_incomplete": s.Partial(),
	}
}

// IndexedStage is recorded when the document becomes retrievable.
type IndexedStage struct{}

func (IndexedStage) Status() ProcessingStatus { return StatusIndexed }
func (IndexedStage) Fields() map[string]any   { return nil }
func (IndexedStage) isStage()                 {}

// FailedStage is recorded when a stage fails.
type FailedStage struct {
	Reason    string
	ErrorType string
	// During is the status the document was in when it failed.
	During   ProcessingStatus
	FileType FileType
}

func (FailedStage) Status() ProcessingStatus { return StatusFailed }
func (FailedStage) isStage()                 {}

func (s FailedStage) Fields() map[string]any {
	details := map[string]any{"error_type": s.ErrorType}
	if s.FileType != "" {
		details["file_type"] = string(s.FileType)
	}
	return map[string]any{
		"error":         s.Reason,
		"error_details": details,
		"failed_stage":  string(s.During),
	}
}

// NewFailed builds a FailedStage from an error.
func NewFailed(stage ProcessingStatus, fileType FileType, err error) FailedStage {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return FailedStage{
		Reason:    reason,
		ErrorType: ErrorType(err),
		During:    stage,
		FileType:  fileType,
	}
}

// CurrentStage decodes the typed stage for the document's current status
// from its metadata map.
func CurrentStage(doc *Document) Stage {
	md := doc.Metadata
	switch doc.Status {
	case StatusUploaded:
		return UploadedStage{Reason: md.String("retry_reason")}
	case StatusExtracting:
		return ExtractingStage{}
	case StatusExtracted:
		return ExtractedStage{
			CharCount: md.Int("char_count"),
			Method:    ExtractionMethod(md.String("extraction_method")),
		}
	case StatusChunking:
		return ChunkingStage{
			Strategy: md.String("chunk_strategy"),
			Size:     md.Int("chunk_size"),
			Overlap:  md.Int("chunk_overlap"),
		}
	case StatusChunked:
		return ChunkedStage{
			ChunkCount:     md.Int("chunk_count"),
			TotalChars:     md.Int("total_chars"),
			AvgChunkSize:   md.Int("avg_chunk_size"),
			EmbeddingError: md.String("embedding_error"),
		}
	case StatusEmbedding:
		return EmbeddingStage{Pending: md.Int("embedding_pending")}
	case StatusEmbedded:
		return EmbeddedStage{
			Count:         md.Int("embedding_count"),
			Model:         md.String("embedding_model"),
			FailedBatches: md.Int("failed_batches"),
			Missing:       md.Int("missing_embeddings"),
		}
	case StatusIndexed:
		return IndexedStage{}
	case StatusFailed:
		f := FailedStage{
			Reason: md.String("error"),
			During: ProcessingStatus(md.String("failed_stage")),
		}
		if details, ok := md["error_details"].(map[string]any); ok {
			f.ErrorType, _ = details["error_type"].(string)
			ft, _ := details["file_type"].(string)
			f.FileType = FileType(ft)
		}
		return f
	default:
		return nil
	}
}
