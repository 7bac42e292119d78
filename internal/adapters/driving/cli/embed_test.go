package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func TestEmbedCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("embed", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Created 4 embeddings; document doc-1 is")
}

func TestEmbedCmd_NoProvider(t *testing.T) {
	services := testServices()
	services.Embeddings = nil
	cleanup := useServices(services)
	defer cleanup()

	_, err := execute("embed", "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding provider configured")
}

func TestEmbedCmd_Incomplete(t *testing.T) {
	services := testServices()
	services.Embeddings = &MockEmbeddingGenerator{
		EmbedFunc: func(context.Context, string) (int, error) {
			return 2, domain.ErrEmbeddingProviderUnavailable
		},
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("embed", "doc-1")

	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderUnavailable)
	assert.Contains(t, out, "Created 2 embeddings")
}

func TestEmbedRetryCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("embed", "retry")

	require.NoError(t, err)
	assert.Contains(t, out, "Checked 2 documents, created 5 embeddings.")
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "incomplete")
}

func TestEmbedRetryCmd_NothingMissing(t *testing.T) {
	services := testServices()
	services.Embeddings = &MockEmbeddingGenerator{
		RetryFunc: func(context.Context) (*domain.RetryReport, error) { return &domain.RetryReport{}, nil },
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("embed", "retry")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents are missing embeddings.")
}

func TestEmbedRetryCmd_Async(t *testing.T) {
	dispatcher := &MockDispatcher{}
	services := testServices()
	services.Dispatcher = dispatcher
	services.Embeddings = &MockEmbeddingGenerator{
		RetryFunc: func(context.Context) (*domain.RetryReport, error) {
			return nil, errors.New("must not run inline")
		},
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("embed", "retry", "--async")

	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.Retries)
	assert.Contains(t, out, "Embedding retry queued.")
}

func TestEmbedRetryCmd_AsyncWithoutRedis(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("embed", "retry", "--async")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.url")
}
