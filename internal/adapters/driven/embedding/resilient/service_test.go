package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

type stubProvider struct {
	err   error
	calls int
}

func (p *stubProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []float32{1, 0}, nil
}

func (p *stubProvider) EmbedBatch(_ context.Context, texts []string) (*driven.EmbeddingBatch, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := &driven.EmbeddingBatch{TotalTokens: len(texts)}
	for range texts {
		out.Vectors = append(out.Vectors, []float32{1, 0})
	}
	return out, nil
}

func (p *stubProvider) Dimensions() int              { return 2 }
func (p *stubProvider) ModelName() string            { return "stub" }
func (p *stubProvider) Ping(_ context.Context) error { return nil }
func (p *stubProvider) Close() error                 { return nil }

func TestService_PassesThrough(t *testing.T) {
	provider := &stubProvider{}
	svc := New(provider, Config{})

	batch, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, batch.Vectors, 2)
	assert.Equal(t, 2, batch.TotalTokens)

	vec, err := svc.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	assert.Equal(t, "stub", svc.ModelName())
	assert.Equal(t, 2, svc.Dimensions())
}

func TestService_OpenBreakerIsProviderUnavailable(t *testing.T) {
	provider := &stubProvider{err: errors.New("503")}
	svc := New(provider, Config{MinRequests: 2, OpenTimeout: time.Minute})

	for range 2 {
		_, err := svc.EmbedBatch(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrEmbeddingProviderUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, svc.State())

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderUnavailable)
	assert.Equal(t, 2, provider.calls, "open breaker does not call the provider")
}

func TestService_CancellationDoesNotTrip(t *testing.T) {
	provider := &stubProvider{err: context.Canceled}
	svc := New(provider, Config{MinRequests: 1})

	for range 3 {
		_, _ = svc.Embed(context.Background(), "a")
	}
	assert.Equal(t, gobreaker.StateClosed, svc.State())
}

func TestService_RateLimitedBacksOff(t *testing.T) {
	provider := &stubProvider{err: domain.ErrRateLimited}
	svc := New(provider, Config{MinRequests: 100})

	_, err := svc.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, svc.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, provider.calls)
}

func TestRateLimiter_Backoff(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRateLimiter(0, 0)
	r.now = func() time.Time { return now }

	assert.True(t, r.Allow())

	r.Backoff(time.Second)
	assert.False(t, r.Allow())

	now = now.Add(2 * time.Second)
	assert.True(t, r.Allow())
}
