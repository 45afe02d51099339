package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Cacheable marks a query whose successful response may be served from cache
type Cacheable interface {
	mediator.Request
	// CacheKey identifies the query within its request type
	CacheKey() string
	// CacheTTL is how long a response stays fresh; zero means the behavior default
	CacheTTL() time.Duration
	// DecodeCached rebuilds the response from its cached json form
	DecodeCached(data []byte) (mediator.Response, error)
}

// CacheKey is the full cache key for a cacheable request
func CacheKey(request Cacheable) string {
	return request.RequestType() + ":" + request.CacheKey()
}

// CachingBehavior serves Cacheable requests through a common.Cache.
// Only successful responses are stored. When the cache itself is unavailable
// the request is handled directly.
type CachingBehavior struct {
	cache      common.Cache
	defaultTTL time.Duration
	logger     *slog.Logger
}

func NewCachingBehavior(cache common.Cache, defaultTTL time.Duration, logger *slog.Logger) *CachingBehavior {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingBehavior{cache: cache, defaultTTL: defaultTTL, logger: logger}
}

func (b *CachingBehavior) Name() string { return NameCaching }

func (b *CachingBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	cacheable, ok := request.(Cacheable)
	if !ok || b.cache == nil {
		return next(ctx, request)
	}

	ttl := cacheable.CacheTTL()
	if ttl <= 0 {
		ttl = b.defaultTTL
	}
	key := CacheKey(cacheable)

	// fresh is set only when this call started the load; the cache may run it
	// on another goroutine that finishes after this call has returned
	var fresh atomic.Pointer[shared.Result[mediator.Response]]
	data, err := b.cache.GetOrSet(ctx, key, func(loadCtx context.Context) ([]byte, error) {
		r := next(loadCtx, request)
		fresh.Store(&r)
		if e := r.Error(); e != nil {
			return nil, e
		}
		return json.Marshal(r.MustValue())
	}, ttl)

	if fresh := fresh.Load(); fresh != nil {
		if err != nil && fresh.IsSuccess() {
			b.logger.WarnContext(ctx, "response not cached", "key", key, "error", err)
		}
		return *fresh
	}
	if ctx.Err() != nil {
		return shared.Failure[mediator.Response](shared.Cancelled(ctx.Err()))
	}

	if err != nil {
		var domainErr *shared.Error
		if errors.As(err, &domainErr) {
			if domainErr.Kind == shared.KindCancelled {
				// the shared load was cancelled but this caller was not
				return next(ctx, request)
			}
			// another caller ran the handler for this key and it failed
			return shared.Failure[mediator.Response](domainErr)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return shared.Failure[mediator.Response](shared.Cancelled(err))
		}
		b.logger.WarnContext(ctx, "cache unavailable, bypassing", "key", key, "error", err)
		return next(ctx, request)
	}

	response, err := cacheable.DecodeCached(data)
	if err != nil {
		b.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", err)
		_ = b.cache.Delete(ctx, key)
		return next(ctx, request)
	}
	return shared.Success(response)
}

var _ mediator.Behavior = (*CachingBehavior)(nil)
