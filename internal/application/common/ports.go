package common

import (
	"context"
	"time"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Cache stores opaque byte payloads by key.
// Adapters: adapters/cache.MemoryCache (ttlcache) and adapters/cache.RedisCache
type Cache interface {
	// GetOrSet returns the cached value for key, or runs factory and stores its
	// value for ttl. A factory error is returned and nothing is stored.
	GetOrSet(ctx context.Context, key string, factory func(ctx context.Context) ([]byte, error), ttl time.Duration) ([]byte, error)

	// Delete evicts key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// EventPublisher forwards committed domain events outside the process
// Adapter: adapters/messaging.NATSEventPublisher
type EventPublisher interface {
	PublishEvent(ctx context.Context, event shared.Event) error
	Close() error
}

// NoOpEventPublisher drops every event. Used when messaging is disabled.
type NoOpEventPublisher struct{}

func (NoOpEventPublisher) PublishEvent(ctx context.Context, event shared.Event) error { return nil }
func (NoOpEventPublisher) Close() error                                               { return nil }
