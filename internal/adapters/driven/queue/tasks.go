// Package queue dispatches pipeline tasks to an asynq worker over Redis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driven.TaskDispatcher = (*Dispatcher)(nil)

// Task types.
const (
	TaskProcessDocument = "document:process"
	TaskEmbeddingRetry  = "embeddings:retry"
)

// Task timeouts.
const (
	processTimeout = 30 * time.Minute
	retryTimeout   = time.Hour
)

// ProcessPayload identifies the document a process task runs for.
type ProcessPayload struct {
	DocumentID string `json:"document_id"`
}

// RedisOpt converts a redis:// URL or bare host:port into asynq options.
func RedisOpt(url string) (asynq.RedisConnOpt, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: redis url is required for the task queue", domain.ErrInvalidInput)
	}
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		opt, err := asynq.ParseRedisURI(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opt, nil
	}
	return asynq.RedisClientOpt{Addr: url}, nil
}

// NewProcessTask builds a process task. Tasks never retry on their own:
// a failure is recorded on the document and retried explicitly.
func NewProcessTask(documentID, queue string) (*asynq.Task, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	payload, err := json.Marshal(ProcessPayload{DocumentID: documentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskProcessDocument,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(processTimeout),
		asynq.Queue(queue),
		asynq.TaskID("process:"+documentID),
	), nil
}

// NewEmbeddingRetryTask builds the embedding retry scan task.
func NewEmbeddingRetryTask(queue string) *asynq.Task {
	return asynq.NewTask(
		TaskEmbeddingRetry,
		nil,
		asynq.MaxRetry(0),
		asynq.Timeout(retryTimeout),
		asynq.Queue(queue),
		asynq.TaskID("embeddings-retry"),
	)
}

// ParseProcessPayload decodes a process task payload.
func ParseProcessPayload(t *asynq.Task) (ProcessPayload, error) {
	var p ProcessPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.DocumentID == "" {
		return p, fmt.Errorf("%w: payload has no document_id", domain.ErrInvalidInput)
	}
	return p, nil
}

// Dispatcher enqueues tasks with an asynq client.
type Dispatcher struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewDispatcher creates a dispatcher enqueuing onto queue.
func NewDispatcher(opt asynq.RedisConnOpt, queue string) *Dispatcher {
	if queue == "" {
		queue = domain.DefaultWorkerQueue
	}
	return &Dispatcher{
		client: asynq.NewClient(opt),
		queue:  queue,
		log:    logger.With("component", "dispatcher"),
	}
}

// EnqueueProcess schedules the full pipeline for one document. A task
// already pending for the document is left in place.
func (d *Dispatcher) EnqueueProcess(ctx context.Context, documentID string) error {
	task, err := NewProcessTask(documentID, d.queue)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task, "document_id", documentID)
}

// EnqueueEmbeddingRetry schedules a scan for missing embeddings.
func (d *Dispatcher) EnqueueEmbeddingRetry(ctx context.Context) error {
	return d.enqueue(ctx, NewEmbeddingRetryTask(d.queue))
}

func (d *Dispatcher) enqueue(ctx context.Context, task *asynq.Task, kv ...any) error {
	info, err := d.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		d.log.Info("task already queued", append([]any{"type", task.Type()}, kv...)...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	d.log.Debug("task enqueued", append([]any{"type", task.Type(), "id", info.ID, "queue", info.Queue}, kv...)...)
	return nil
}

// Close releases the queue connection.
func (d *Dispatcher) Close() error {
	return d.client.Close()
}
