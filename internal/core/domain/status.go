package domain

import (
	"fmt"
	"time"
)

// ProcessingStatus is a document's position in the ingestion state machine.
type ProcessingStatus string

// Processing states, in pipeline order.
const (
	StatusUploaded   ProcessingStatus = "uploaded"
	StatusExtracting ProcessingStatus = "extracting"
	StatusExtracted  ProcessingStatus = "extracted"
	StatusChunking   ProcessingStatus = "chunking"
	StatusChunked    ProcessingStatus = "chunked"
	StatusEmbedding  ProcessingStatus = "embedding"
	StatusEmbedded   ProcessingStatus = "embedded"
	StatusIndexed    ProcessingStatus = "indexed"
	StatusFailed     ProcessingStatus = "failed"
)

// AllStatuses lists every state in pipeline order, failed last.
var AllStatuses = []ProcessingStatus{
	StatusUploaded,
	StatusExtracting,
	StatusExtracted,
	StatusChunking,
	StatusChunked,
	StatusEmbedding,
	StatusEmbedded,
	StatusIndexed,
	StatusFailed,
}

// forward holds the allowed non-retry transitions.
// Any state may also move to StatusFailed.
var forward = map[ProcessingStatus][]ProcessingStatus{
	StatusUploaded:   {StatusExtracting},
	StatusExtracting: {StatusExtracted},
	StatusExtracted:  {StatusChunking},
	StatusChunking:   {StatusChunked},
	StatusChunked:    {StatusEmbedding},
	// embedding falls back to chunked when no batch succeeded.
	StatusEmbedding: {StatusEmbedded, StatusChunked},
	StatusEmbedded:  {StatusIndexed},
}

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// Description returns a human-readable description of the status.
func (s ProcessingStatus) Description() string {
	switch s {
	case StatusUploaded:
		return "Uploaded, waiting for processing"
	case StatusExtracting:
		return "Extracting text"
	case StatusExtracted:
		return "Text extracted"
	case StatusChunking:
		return "Splitting into chunks"
	case StatusChunked:
		return "Chunked, waiting for embeddings"
	case StatusEmbedding:
		return "Generating embeddings"
	case StatusEmbedded:
		return "Embeddings generated"
	case StatusIndexed:
		return "Ready for retrieval"
	case StatusFailed:
		return "Processing failed"
	default:
		return "Unknown"
	}
}

// CanAdvance reports whether from -> to is a normal pipeline transition.
func CanAdvance(from, to ProcessingStatus) bool {
	if to == StatusFailed {
		return from.IsValid()
	}
	for _, next := range forward[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanRetry reports whether from -> to is an explicit retry transition.
// Failed documents restart from the beginning or from the failed stage.
// Indexed documents may be re-processed from scratch. Chunked and
// embedded documents may re-enter embedding to fill missing vectors.
func CanRetry(from, to ProcessingStatus, failedStage ProcessingStatus) bool {
	switch from {
	case StatusFailed:
		if to == StatusUploaded {
			return true
		}
		return failedStage != "" && failedStage != StatusFailed && to == failedStage
	case StatusIndexed:
		return to == StatusUploaded
	case StatusChunked, StatusEmbedded:
		return to == StatusEmbedding
	default:
		return false
	}
}

// TransitionError describes a rejected status change.
// It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From ProcessingStatus
	To   ProcessingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// Is reports whether target is ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ProcessingMetadata is the JSON-like metadata map kept on a Document.
type ProcessingMetadata map[string]any

// Clone returns a shallow copy. A nil map clones to an empty map.
func (m ProcessingMetadata) Clone() ProcessingMetadata {
	out := make(ProcessingMetadata, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Apply merges the stage's fields and stamps "<status>_at".
// It returns a new map and leaves m untouched.
func (m ProcessingMetadata) Apply(stage Stage, at time.Time) ProcessingMetadata {
	out := m.Clone()
	if _, failed := stage.(FailedStage); !failed {
		delete(out, "error")
		delete(out, "error_details")
		delete(out, "failed_stage")
	}
	for k, v := range stage.Fields() {
		out[k] = v
	}
	out[string(stage.Status())+"_at"] = at.UTC().Format(time.RFC3339Nano)
	return out
}

// Timestamp returns the "<status>_at" stamp, if present.
func (m ProcessingMetadata) Timestamp(status ProcessingStatus) (time.Time, bool) {
	raw, ok := m[string(status)+"_at"].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String returns the string value for key, or "".
func (m ProcessingMetadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the integer value for key. JSON numbers decode as float64,
// so several numeric types are accepted.
func (m ProcessingMetadata) Int(key string) int {
	return toInt(m[key])
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// StatusReport is the answer to get_status.
type StatusReport struct {
	DocumentID string             `json:"document_id"`
	Status     ProcessingStatus   `json:"status"`
	Metadata   ProcessingMetadata `json:"metadata"`
	IsReady    bool               `json:"is_ready"`
	HasError   bool               `json:"has_error"`
	UploadedAt time.Time          `json:"uploaded_at"`
}

// NewStatusReport builds a report from a document.
func NewStatusReport(doc *Document) *StatusReport {
	md := doc.Metadata
	if md == nil {
		md = ProcessingMetadata{}
	}
	return &StatusReport{
		DocumentID: doc.ID,
		Status:     doc.Status,
		Metadata:   md,
		IsReady:    doc.IsReady(),
		HasError:   doc.HasError(),
		UploadedAt: doc.UploadedAt,
	}
}
