package queue

import (
	"context"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func TestRedisOpt(t *testing.T) {
	opt, err := RedisOpt("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, asynq.RedisClientOpt{Addr: "localhost:6379"}, opt)

	opt, err = RedisOpt("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	client, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "cache:6380", client.Addr)
	assert.Equal(t, 2, client.DB)

	_, err = RedisOpt("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessTaskPayload(t *testing.T) {
	task, err := NewProcessTask("doc-1", "ingestion")
	require.NoError(t, err)
	assert.Equal(t, TaskProcessDocument, task.Type())

	p, err := ParseProcessPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", p.DocumentID)

	_, err = NewProcessTask("", "ingestion")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseProcessPayload_Invalid(t *testing.T) {
	_, err := ParseProcessPayload(asynq.NewTask(TaskProcessDocument, []byte("not json")))
	assert.Error(t, err)

	_, err = ParseProcessPayload(asynq.NewTask(TaskProcessDocument, []byte(`{}`)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDispatcher_Redis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opt, err := RedisOpt(url)
	require.NoError(t, err)

	queue := "aipilot-test"
	d := NewDispatcher(opt, queue)
	defer d.Close()

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	defer func() { _, _ = inspector.DeleteAllPendingTasks(queue) }()

	ctx := context.Background()
	require.NoError(t, d.EnqueueProcess(ctx, "doc-1"))
	require.NoError(t, d.EnqueueProcess(ctx, "doc-1"), "second enqueue is a no-op")
	require.NoError(t, d.EnqueueEmbeddingRetry(ctx))

	pending, err := inspector.ListPendingTasks(queue)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
