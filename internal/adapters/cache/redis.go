package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
)

// redisClient is the subset of *redis.Client the cache needs
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisCache is a common.Cache shared between processes through Redis
type RedisCache struct {
	client redisClient
	prefix string
	group  singleflight.Group
}

// NewRedisCache wraps client; every key is stored under prefix
func NewRedisCache(client redisClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// NewRedisClient connects to the server described by cfg and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) GetOrSet(ctx context.Context, key string, factory func(ctx context.Context) ([]byte, error), ttl time.Duration) ([]byte, error) {
	full := c.prefix + key

	data, err := c.client.Get(ctx, full).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read %s from redis: %w", full, err)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(full, func() (interface{}, error) {
		data, err := factory(detached)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(detached, full, data, ttl).Err(); err != nil {
			return data, fmt.Errorf("failed to write %s to redis: %w", full, err)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		data, _ = res.Val.([]byte)
		return data, res.Err
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", c.prefix+key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ common.Cache = (*RedisCache)(nil)
