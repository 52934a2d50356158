package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCache_LoadsOnce(t *testing.T) {
	var loads int32
	cache := NewSnapshotCache(func(ctx context.Context) (Snapshot, error) {
		atomic.AddInt32(&loads, 1)
		return Snapshot{Occupied, Vacant}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, Snapshot{Occupied, Vacant}, snap)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestSnapshotCache_ReturnsCopies(t *testing.T) {
	cache := NewSnapshotCache(func(ctx context.Context) (Snapshot, error) {
		return Snapshot{Occupied}, nil
	})

	snap, err := cache.Get(context.Background())
	require.NoError(t, err)
	snap[0] = Vacant

	again, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Occupied}, again)
}

func TestSnapshotCache_SetAndInvalidate(t *testing.T) {
	var loads int32
	cache := NewSnapshotCache(func(ctx context.Context) (Snapshot, error) {
		atomic.AddInt32(&loads, 1)
		return Snapshot{Vacant}, nil
	})

	cache.Set(Snapshot{Occupied, Occupied})
	snap, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Occupied, Occupied}, snap)
	assert.Equal(t, int32(0), atomic.LoadInt32(&loads))

	cache.Invalidate()
	snap, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Vacant}, snap)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestSnapshotCache_LoadError(t *testing.T) {
	cache := NewSnapshotCache(func(ctx context.Context) (Snapshot, error) {
		return nil, errors.New("db down")
	})

	_, err := cache.Get(context.Background())
	assert.ErrorContains(t, err, "db down")
}
