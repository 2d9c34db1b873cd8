package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe: connectivity errors look like a
// cache miss to callers and are only logged.
type Client struct {
	client *redis.Client
	log    *slog.Logger
}

// New creates a new Redis client. No connection is made until first use.
func New(addr, password string, db int, log *slog.Logger) *Client {
	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	return &Client{client: redis.NewClient(opts), log: log}
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.log.Debug("cache get failed", "key", key, "error", err)
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors. A non-positive ttl is a no-op.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil || ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("cache set failed", "key", key, "error", err)
	}
	return nil
}

const deleteBatch = 100

// DeletePrefix removes every key starting with prefix, ignoring redis errors.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", deleteBatch).Iterator()
	keys := make([]string, 0, deleteBatch)
	flush := func() {
		if len(keys) == 0 {
			return
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.log.Debug("cache delete failed", "prefix", prefix, "error", err)
		}
		keys = keys[:0]
	}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == deleteBatch {
			flush()
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Debug("cache scan failed", "prefix", prefix, "error", err)
		return nil
	}
	flush()
	return nil
}

// Ping reports whether redis answers. Unlike the data calls it surfaces errors.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
