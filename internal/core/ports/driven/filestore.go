package driven

import "context"

// FileStore keeps the original bytes of uploaded files so the pipeline
// can re-read them on processing and re-processing.
type FileStore interface {
	// Put stores content under name and returns its storage path.
	Put(ctx context.Context, name string, content []byte) (string, error)

	// Get returns the content stored at path.
	// Returns domain.ErrNotFound if nothing is stored there.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes the content at path. Missing content is not an error.
	Delete(ctx context.Context, path string) error
}
