package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ElementCache stores raw element lists by key.
type ElementCache interface {
	GetElements(ctx context.Context, key string) ([]Element, bool, error)
	SetElements(ctx context.Context, key string, elements []Element, expiration time.Duration) error
}

// RedisCache is an ElementCache backed by Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisCacheFromURL parses url, connects and pings.
func NewRedisCacheFromURL(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCache(client), nil
}

func (c *RedisCache) GetElements(ctx context.Context, key string) ([]Element, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}

	var elements []Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return elements, true, nil
}

func (c *RedisCache) SetElements(ctx context.Context, key string, elements []Element, expiration time.Duration) error {
	data, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// PlayersCacheKey is the cache key for a source's element list
func PlayersCacheKey(sourceName string) string {
	return fmt.Sprintf("players:%s", sourceName)
}

// CachedSource serves elements from cache and falls through to the wrapped
// source on a miss. Cache failures are logged and never fail the load.
type CachedSource struct {
	source     Source
	cache      ElementCache
	expiration time.Duration
	logger     *logrus.Logger
}

// NewCachedSource wraps source with cache
func NewCachedSource(source Source, cache ElementCache, expiration time.Duration, logger *logrus.Logger) *CachedSource {
	return &CachedSource{
		source:     source,
		cache:      cache,
		expiration: expiration,
		logger:     logger,
	}
}

func (c *CachedSource) Name() string {
	return c.source.Name()
}

func (c *CachedSource) Elements(ctx context.Context) ([]Element, error) {
	key := PlayersCacheKey(c.source.Name())

	elements, ok, err := c.cache.GetElements(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Player cache read failed")
	} else if ok {
		c.logger.WithFields(logrus.Fields{
			"cache_key": key,
			"elements":  len(elements),
		}).Debug("Retrieved players from cache")
		return elements, nil
	}

	elements, err = c.source.Elements(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetElements(ctx, key, elements, c.expiration); err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Player cache write failed")
	}
	return elements, nil
}
