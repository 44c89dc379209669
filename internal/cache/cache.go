// Package cache stores rendered GET responses in Redis.
//
// Entries are keyed by a generation number. Writes bump the generation,
// which orphans every earlier entry; orphans simply expire with their TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deppfellow/portfolio/internal/config"
)

// Entry is a stored response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type ResponseCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	enabled bool
}

func New(client redis.UniversalClient, cfg config.CacheConfig) *ResponseCache {
	return &ResponseCache{
		client:  client,
		ttl:     cfg.TTL,
		prefix:  cfg.Prefix,
		enabled: cfg.Enabled && client != nil,
	}
}

func (c *ResponseCache) Enabled() bool {
	return c != nil && c.enabled
}

func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

func (c *ResponseCache) generationKey() string {
	return fmt.Sprintf("cache:%s:generation", c.prefix)
}

func (c *ResponseCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Key derives the entry key for a request target at the current generation.
func (c *ResponseCache) Key(ctx context.Context, method, target string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", fmt.Errorf("read cache generation: %w", err)
	}

	sum := sha256.Sum256([]byte(method + " " + target))
	return fmt.Sprintf("cache:%s:%d:%s", c.prefix, gen, hex.EncodeToString(sum[:])), nil
}

// Get returns the entry stored under key. A miss is (nil, nil).
func (c *ResponseCache) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores entry under key for the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Invalidate moves to a new generation so no existing entry is served again.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}
