// Package resilient wraps an embedding provider with rate limiting and a
// circuit breaker.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Config tunes the decorator.
type Config struct {
	// RatePerSecond paces requests. Zero disables pacing.
	RatePerSecond float64

	// Burst is the token bucket size (default: 1).
	Burst int

	// MinRequests is the number of requests in a window before the
	// breaker may open (default: 3).
	MinRequests uint32

	// FailureRatio opens the breaker (default: 0.6).
	FailureRatio float64

	// OpenTimeout is how long the breaker stays open (default: 60s).
	OpenTimeout time.Duration
}

// Service decorates a driven.EmbeddingService. Calls made while the
// breaker is open fail with domain.ErrEmbeddingProviderUnavailable.
type Service struct {
	next    driven.EmbeddingService
	limiter *RateLimiter
	breaker *gobreaker.CircuitBreaker
}

// New wraps next.
func New(next driven.EmbeddingService, cfg Config) *Service {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 3
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding:" + next.ModelName(),
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && ratio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Service{
		next:    next,
		limiter: NewRateLimiter(cfg.RatePerSecond, cfg.Burst),
		breaker: breaker,
	}
}

// Embed generates a vector embedding for the given text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.call(ctx, func() (any, error) {
		return s.next.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return out.([]float32), nil
}

// EmbedBatch generates one vector per text.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) (*driven.EmbeddingBatch, error) {
	out, err := s.call(ctx, func() (any, error) {
		return s.next.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return out.(*driven.EmbeddingBatch), nil
}

// call waits for the limiter and runs fn through the breaker.
func (s *Service) call(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := s.breaker.Execute(fn)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderUnavailable, err)
	case errors.Is(err, domain.ErrRateLimited):
		s.limiter.Backoff(0)
		return nil, err
	default:
		return nil, err
	}
}

// State returns the breaker state, for status output.
func (s *Service) State() gobreaker.State {
	return s.breaker.State()
}

func (s *Service) Dimensions() int                { return s.next.Dimensions() }
func (s *Service) ModelName() string              { return s.next.ModelName() }
func (s *Service) Ping(ctx context.Context) error { return s.next.Ping(ctx) }
func (s *Service) Close() error                   { return s.next.Close() }
