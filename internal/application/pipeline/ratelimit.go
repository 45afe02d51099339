package pipeline

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// KeyFunc picks the token bucket a request draws from
type KeyFunc func(ctx context.Context, request mediator.Request) string

// ByRequestType gives every request type its own bucket
func ByRequestType(ctx context.Context, request mediator.Request) string {
	return request.RequestType()
}

// RateLimitBehavior applies a token bucket per key and waits for a token.
// Waiting honours ctx: a cancelled wait becomes a Cancelled failure.
type RateLimitBehavior struct {
	limit rate.Limit
	burst int
	key   KeyFunc

	mu    sync.Mutex
	byKey map[string]*rate.Limiter
}

// NewRateLimitBehavior creates the behavior; rps <= 0 disables limiting
func NewRateLimitBehavior(rps float64, burst int, key KeyFunc) *RateLimitBehavior {
	if burst <= 0 {
		burst = 1
	}
	if key == nil {
		key = ByRequestType
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimitBehavior{
		limit: limit,
		burst: burst,
		key:   key,
		byKey: make(map[string]*rate.Limiter),
	}
}

func (b *RateLimitBehavior) Name() string { return NameRateLimit }

func (b *RateLimitBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	if err := b.limiter(b.key(ctx, request)).Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return shared.Failure[mediator.Response](shared.Cancelled(ctxErr))
		}
		// the deadline would pass before the next token is available
		return shared.Failure[mediator.Response](shared.Cancelled(err).WithMetadata("reason", "rate_limited"))
	}
	return next(ctx, request)
}

func (b *RateLimitBehavior) limiter(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.byKey[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.byKey[key] = l
	}
	return l
}

var _ mediator.Behavior = (*RateLimitBehavior)(nil)
