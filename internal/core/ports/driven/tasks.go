package driven

import "context"

// TaskDispatcher enqueues pipeline work for a background worker.
// Tasks are explicit: nothing is scheduled or retried automatically.
type TaskDispatcher interface {
	// EnqueueProcess schedules the full pipeline for one document.
	EnqueueProcess(ctx context.Context, documentID string) error

	// EnqueueEmbeddingRetry schedules a scan for missing embeddings.
	EnqueueEmbeddingRetry(ctx context.Context) error

	// Close releases the queue connection.
	Close() error
}
