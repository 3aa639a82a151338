// Package cache provides result caching for extraction sessions.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/retry"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the byte-level cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RedisClient implements Client using Redis.
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis cache client and checks the connection.
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := retry.Do(ctx, retry.DefaultConfig(), nil, "redis ping", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "textgrab:"
	}

	return &RedisClient{client: client, prefix: prefix}, nil
}

// Get retrieves a value from cache.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores a value in cache with TTL.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from cache.
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// MemoryClient implements an in-process cache.
type MemoryClient struct {
	mu      sync.RWMutex
	data    map[string]cacheEntry
	maxSize int
	stop    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryClient creates an in-memory cache holding at most maxSize entries.
func NewMemoryClient(maxSize int) *MemoryClient {
	if maxSize <= 0 {
		maxSize = 256
	}

	c := &MemoryClient{
		data:    make(map[string]cacheEntry),
		maxSize: maxSize,
		stop:    make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value from cache.
func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || entry.expired(time.Now()) {
		return nil, ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores a value in cache. A non-positive ttl keeps the entry until it
// is evicted, as Redis does for a zero expiration.
func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictOldest()
	}

	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.data[key] = entry

	return nil
}

// Delete removes a value from cache.
func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryClient) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// evictOldest removes the entry with the earliest expiration. Entries
// without expiry go last.
func (c *MemoryClient) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.data {
		if entry.expiresAt.IsZero() {
			if oldestKey == "" {
				oldestKey = key
			}
			continue
		}
		if oldestTime.IsZero() || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}

	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

// cleanup periodically removes expired entries.
func (c *MemoryClient) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.data {
				if entry.expired(now) {
					delete(c.data, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Key generates a cache key from components.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// ResultKey is the cache key for the final text of a payload recognized in
// the given language.
func ResultKey(digest, language string) string {
	return Key("result", language, digest)
}

// TextCache stores extraction results as strings on top of a Client.
type TextCache struct {
	client Client
	ttl    time.Duration
}

// NewTextCache wraps client with a fixed TTL.
func NewTextCache(client Client, ttl time.Duration) *TextCache {
	return &TextCache{client: client, ttl: ttl}
}

// GetText returns the cached text for key. A miss is not an error.
func (c *TextCache) GetText(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

// PutText stores text under key.
func (c *TextCache) PutText(ctx context.Context, key, text string) error {
	return c.client.Set(ctx, key, []byte(text), c.ttl)
}

// Close closes the underlying client.
func (c *TextCache) Close() error {
	return c.client.Close()
}

// New builds the cache selected by cfg. It returns nil for driver "none".
func New(cfg config.CacheConfig) (*TextCache, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "redis":
		client, err := NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewTextCache(client, cfg.TTL), nil
	default:
		return NewTextCache(NewMemoryClient(cfg.MaxEntries), cfg.TTL), nil
	}
}
