// Package redis provides a query-embedding cache backed by Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/vectors"
)

// Ensure QueryCache implements the interface.
var _ driven.QueryCache = (*QueryCache)(nil)

// keyPrefix namespaces cache keys.
const keyPrefix = "aipilot:qemb:"

// QueryCache stores query vectors as packed float32 strings with a TTL.
type QueryCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewClient parses a redis:// or rediss:// URL, or a bare host:port, and
// pings the server.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	var opts *goredis.Options
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := goredis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &goredis.Options{Addr: url}
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewQueryCache creates a cache on rdb. A ttl <= 0 keeps entries forever.
func NewQueryCache(rdb *goredis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached vector for model and text.
func (c *QueryCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.rdb.Get(ctx, Key(model, text)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	vec, err := vectors.Decode(data)
	if err != nil || len(vec) == 0 {
		return nil, false, nil
	}
	return vec, true, nil
}

// Set stores vector for model and text.
func (c *QueryCache) Set(ctx context.Context, model, text string, vector []float32) error {
	if err := c.rdb.Set(ctx, Key(model, text), vectors.Encode(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *QueryCache) Close() error {
	return c.rdb.Close()
}

// Key returns the cache key for model and text.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + model + ":" + hex.EncodeToString(sum[:])
}
