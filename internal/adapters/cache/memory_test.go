package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/adapters/cache"
)

func constant(calls *atomic.Int32, value string) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(value), nil
	}
}

func TestMemoryCache_MissRunsFactoryThenHits(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	var calls atomic.Int32

	// Act
	first, err1 := c.GetOrSet(context.Background(), "k", constant(&calls, "v1"), time.Minute)
	second, err2 := c.GetOrSet(context.Background(), "k", constant(&calls, "v2"), time.Minute)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, "v1", string(first))
	assert.Equal(t, "v1", string(second))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoryCache_FactoryErrorIsNotStored(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	boom := errors.New("boom")
	var calls atomic.Int32

	// Act
	_, err := c.GetOrSet(context.Background(), "k", func(context.Context) ([]byte, error) {
		return nil, boom
	}, time.Minute)
	value, err2 := c.GetOrSet(context.Background(), "k", constant(&calls, "ok"), time.Minute)

	// Assert
	assert.ErrorIs(t, err, boom)
	require.NoError(t, err2)
	assert.Equal(t, "ok", string(value))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoryCache_EntriesExpire(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	var calls atomic.Int32
	_, err := c.GetOrSet(context.Background(), "k", constant(&calls, "v"), 20*time.Millisecond)
	require.NoError(t, err)

	// Act
	time.Sleep(60 * time.Millisecond)
	_, err = c.GetOrSet(context.Background(), "k", constant(&calls, "v"), time.Minute)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryCache_Delete(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	var calls atomic.Int32
	_, err := c.GetOrSet(context.Background(), "k", constant(&calls, "v"), time.Minute)
	require.NoError(t, err)

	// Act
	require.NoError(t, c.Delete(context.Background(), "k"))
	require.NoError(t, c.Delete(context.Background(), "missing"))
	_, err = c.GetOrSet(context.Background(), "k", constant(&calls, "v"), time.Minute)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryCache_ConcurrentMissesShareOneCall(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	var calls atomic.Int32
	release := make(chan struct{})
	slow := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	// Act
	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrSet(context.Background(), "k", slow, time.Minute)
			if err == nil {
				results[i] = string(v)
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

func TestMemoryCache_CancelledContext(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32

	// Act
	_, err := c.GetOrSet(ctx, "k", constant(&calls, "v"), time.Minute)

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestMemoryCache_CapacityEvictsOldest(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(2)
	var calls atomic.Int32

	// Act
	for _, k := range []string{"a", "b", "c"} {
		_, err := c.GetOrSet(context.Background(), k, constant(&calls, k), time.Minute)
		require.NoError(t, err)
	}

	// Assert
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_WaiterOutlivesCancelledLeader(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) ([]byte, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte("v"), nil
	}
	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrSet(leaderCtx, "k", load, time.Minute)
		leaderErr <- err
	}()
	<-started

	type outcome struct {
		value []byte
		err   error
	}
	waiter := make(chan outcome, 1)
	go func() {
		v, err := c.GetOrSet(context.Background(), "k", load, time.Minute)
		waiter <- outcome{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	// Act
	cancelLeader()
	err := <-leaderErr
	close(release)
	got := <-waiter

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, got.err)
	assert.Equal(t, "v", string(got.value))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_WaiterHonoursOwnDeadline(t *testing.T) {
	// Arrange
	c := cache.NewMemoryCache(0)
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	load := func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return []byte("v"), nil
	}
	go func() {
		_, _ = c.GetOrSet(context.Background(), "k", load, time.Minute)
	}()
	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	begin := time.Now()
	_, err := c.GetOrSet(ctx, "k", load, time.Minute)

	// Assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), 250*time.Millisecond)
}
