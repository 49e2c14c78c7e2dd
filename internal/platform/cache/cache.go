// Package cache provides a Dragonfly/Redis-backed progress store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores progress blobs in Redis/Dragonfly under a key namespace.
type Cache struct {
	Client    *redis.Client
	namespace string
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to the cache and verifies it with a ping.
func New(ctx context.Context, url, namespace string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return NewWithClient(client, namespace), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, namespace string) *Cache {
	return &Cache{Client: client, namespace: namespace}
}

// Key returns the namespaced Redis key for a logical progress key.
func (c *Cache) Key(key string) string {
	if c.namespace == "" {
		return key
	}
	return c.namespace + ":" + key
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.Client.Get(ctx, c.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set writes the value without expiry; progress lives until reset.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.Client.Set(ctx, c.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.Client.Del(ctx, c.Key(key)).Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
