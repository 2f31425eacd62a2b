package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("acquires a new key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "workitem:poll:1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new key should return true")
	})

	t.Run("returns false for a held key", func(t *testing.T) {
		key := "workitem:poll:2"

		isNew, err := store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "held key should return false")
	})

	t.Run("re-admits after expiration", func(t *testing.T) {
		key := "workitem:poll:3"

		isNew, err := store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew, "expired key should be acquirable again")
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	key := "workitem:poll:release"

	isNew, err := store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)
	require.True(t, isNew)

	require.NoError(t, store.Release(ctx, key))

	// releasing re-admits the key long before the TTL expires
	isNew, err = store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	// releasing an unknown key is a no-op
	assert.NoError(t, store.Release(ctx, "never-held"))
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns false for an unknown key", func(t *testing.T) {
		held, err := store.IsProcessed(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, held)
	})

	t.Run("returns true for a held key", func(t *testing.T) {
		key := "held-key"
		_, err := store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)

		held, err := store.IsProcessed(ctx, key)
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("returns false for an expired key", func(t *testing.T) {
		key := "expired-key"
		_, err := store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		held, err := store.IsProcessed(ctx, key)
		require.NoError(t, err)
		assert.False(t, held, "expired key should return false")
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.MarkProcessed(ctx, "short-lived-1", 10*time.Millisecond)
	store.MarkProcessed(ctx, "short-lived-2", 10*time.Millisecond)
	store.MarkProcessed(ctx, "long-lived", time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())

	held, err := store.IsProcessed(ctx, "long-lived")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100
	const key = "workitem:poll:contended"

	results := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			isNew, err := store.MarkProcessed(ctx, key, time.Hour)
			if err != nil {
				results <- false
			} else {
				results <- isNew
			}
		}()
	}

	newCount := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			newCount++
		}
	}

	// exactly one concurrent poll wins the guard
	assert.Equal(t, 1, newCount)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	err := store.Close()
	assert.NoError(t, err)

	// multiple closes are safe
	err = store.Close()
	assert.NoError(t, err)
}
