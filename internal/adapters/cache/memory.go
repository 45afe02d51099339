package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/andrescamacho/mediator-go/internal/application/common"
)

// MemoryCache is a process-local common.Cache.
// Concurrent misses on one key share a single factory call, which runs
// detached from the caller that started it. Each caller stops waiting as
// soon as its own context is done.
type MemoryCache struct {
	items *ttlcache.Cache[string, []byte]
	group singleflight.Group
}

// NewMemoryCache creates a MemoryCache holding at most capacity entries (0 = unbounded).
// Call Start to evict expired entries in the background and Stop to end it.
func NewMemoryCache(capacity uint64) *MemoryCache {
	opts := []ttlcache.Option[string, []byte]{
		// a hit must not extend the life of a cached response
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}
	return &MemoryCache{items: ttlcache.New[string, []byte](opts...)}
}

func (c *MemoryCache) Start() { go c.items.Start() }
func (c *MemoryCache) Stop()  { c.items.Stop() }
func (c *MemoryCache) Len() int {
	return c.items.Len()
}

func (c *MemoryCache) GetOrSet(ctx context.Context, key string, factory func(ctx context.Context) ([]byte, error), ttl time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if item := c.items.Get(key); item != nil {
		return item.Value(), nil
	}

	// the load outlives any single caller so the others still get its result
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// a concurrent leader may have filled the entry while we waited
		if item := c.items.Get(key); item != nil {
			return item.Value(), nil
		}
		data, err := factory(detached)
		if err != nil {
			return nil, err
		}
		c.items.Set(key, data, ttl)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

var _ common.Cache = (*MemoryCache)(nil)
