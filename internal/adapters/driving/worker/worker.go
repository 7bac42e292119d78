// Package worker runs queued pipeline tasks with an asynq server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hibiken/asynq"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/queue"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Handlers executes tasks against the pipeline services.
type Handlers struct {
	ingest     driving.IngestService
	embeddings driving.EmbeddingGenerator
	log        *logger.Logger
}

// NewHandlers creates task handlers. embeddings may be nil when no
// embedding provider is configured.
func NewHandlers(ingest driving.IngestService, embeddings driving.EmbeddingGenerator) *Handlers {
	return &Handlers{
		ingest:     ingest,
		embeddings: embeddings,
		log:        logger.With("component", "worker"),
	}
}

// Mux registers every task type.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessDocument, h.HandleProcess)
	mux.HandleFunc(queue.TaskEmbeddingRetry, h.HandleEmbeddingRetry)
	return mux
}

// HandleProcess runs the pipeline for the document in the payload.
// Failures are already recorded on the document, so none are retried.
func (h *Handlers) HandleProcess(ctx context.Context, t *asynq.Task) error {
	p, err := queue.ParseProcessPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	log := h.log.With("document_id", p.DocumentID)
	log.Info("processing document")

	doc, err := h.ingest.Process(ctx, p.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("document no longer exists")
			return nil
		}
		log.Error("processing failed", "error", err, "error_type", domain.ErrorType(err))
		return fmt.Errorf("process %s: %w: %w", p.DocumentID, err, asynq.SkipRetry)
	}

	log.Info("document processed", "status", doc.Status)
	return nil
}

// HandleEmbeddingRetry fills missing embeddings across documents.
func (h *Handlers) HandleEmbeddingRetry(ctx context.Context, _ *asynq.Task) error {
	if h.embeddings == nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderUnavailable, asynq.SkipRetry)
	}

	report, err := h.embeddings.RetryMissing(ctx)
	if err != nil {
		return fmt.Errorf("embedding retry: %w: %w", err, asynq.SkipRetry)
	}
	h.log.Info("embedding retry finished",
		"checked", report.Checked,
		"created", report.Created,
		"completed", len(report.Completed),
		"incomplete", len(report.Incomplete))
	return nil
}

// Config configures the worker server.
type Config struct {
	Concurrency int
	Queue       string
}

// Run serves tasks until ctx is cancelled.
func Run(ctx context.Context, opt asynq.RedisConnOpt, cfg Config, h *Handlers) error {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Queue == "" {
		cfg.Queue = domain.DefaultWorkerQueue
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		Logger:      asynqLogger{l: h.log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			h.log.Error("task failed", "type", task.Type(), "error", err)
		}),
	})

	h.log.Info("worker started", "queue", cfg.Queue, "concurrency", cfg.Concurrency)
	if err := srv.Start(h.Mux()); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	<-ctx.Done()
	srv.Shutdown()
	h.log.Info("worker stopped")
	return nil
}

// asynqLogger routes asynq's logs through the application logger.
type asynqLogger struct {
	l *logger.Logger
}

func (a asynqLogger) Debug(args ...any) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error(fmt.Sprint(args...)) }

func (a asynqLogger) Fatal(args ...any) {
	a.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
