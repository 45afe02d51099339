package pipeline_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

type createThing struct {
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"gt=0"`
	Note string `json:"note,omitempty" validate:"max=10"`
}

func (createThing) RequestType() string { return "test.create_thing" }

type thingDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type getThing struct {
	ID string `json:"id"`
}

func (getThing) RequestType() string     { return "test.get_thing" }
func (q getThing) CacheKey() string      { return q.ID }
func (getThing) CacheTTL() time.Duration { return time.Minute }

func (getThing) DecodeCached(data []byte) (mediator.Response, error) {
	var dto thingDTO
	err := json.Unmarshal(data, &dto)
	return dto, err
}

// fakeCache is an in-process common.Cache that records activity
type fakeCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	failWith error
	deleted  []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) GetOrSet(ctx context.Context, key string, factory func(ctx context.Context) ([]byte, error), ttl time.Duration) ([]byte, error) {
	c.mu.Lock()
	if c.failWith != nil {
		c.mu.Unlock()
		return nil, c.failWith
	}
	if v, ok := c.data[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := factory(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
	return v, nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// counted registers handlers that count their invocations
type counted struct {
	creates int
	gets    int
	getErr  *shared.Error
}

func (c *counted) mediator(t *testing.T, behaviors ...mediator.Behavior) *mediator.Mediator {
	t.Helper()
	registry := mediator.NewRegistry()
	require.NoError(t, mediator.RegisterFunc(registry, func(ctx context.Context, req createThing) shared.Result[string] {
		c.creates++
		return shared.Success("thing-" + req.Name)
	}))
	require.NoError(t, mediator.RegisterFunc(registry, func(ctx context.Context, req getThing) shared.Result[thingDTO] {
		c.gets++
		if c.getErr != nil {
			return shared.Failure[thingDTO](c.getErr)
		}
		return shared.Success(thingDTO{ID: req.ID, Name: "widget"})
	}))
	return mediator.New(registry, mediator.WithBehaviors(behaviors...))
}
