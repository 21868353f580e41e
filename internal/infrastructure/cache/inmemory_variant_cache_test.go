package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/commerce"
)

func TestInMemoryVariantCache_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryVariantCache(time.Minute)
	defer cache.Close()

	variant := availability.ResolvedVariant{
		VariantID:       1001,
		InventoryItemID: 5001,
		TrackingMode:    commerce.TrackingModePlatform,
	}

	t.Run("miss before set", func(t *testing.T) {
		_, found, err := cache.Get(ctx, "FRAME-MB-2436")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("hit after set", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "FRAME-MB-2436", variant))

		got, found, err := cache.Get(ctx, "FRAME-MB-2436")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, variant, *got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		_, found, err := cache.Get(ctx, "FRAME-WN-2436")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		got, found, err := cache.Get(ctx, "FRAME-MB-2436")
		require.NoError(t, err)
		require.True(t, found)

		got.VariantID = 9999
		again, _, err := cache.Get(ctx, "FRAME-MB-2436")
		require.NoError(t, err)
		assert.Equal(t, int64(1001), again.VariantID)
	})
}

func TestInMemoryVariantCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryVariantCache(10 * time.Millisecond)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "FRAME-MB-2436", availability.ResolvedVariant{VariantID: 1001}))

	_, found, err := cache.Get(ctx, "FRAME-MB-2436")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)

	_, found, err = cache.Get(ctx, "FRAME-MB-2436")
	require.NoError(t, err)
	assert.False(t, found, "expired entry behaves like a miss")
}

func TestInMemoryVariantCache_DefaultTTL(t *testing.T) {
	cache := NewInMemoryVariantCache(0)
	defer cache.Close()
	assert.Equal(t, DefaultVariantTTL, cache.ttl)
}

func TestInMemoryVariantCache_Cleanup(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryVariantCache(time.Millisecond)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "A", availability.ResolvedVariant{VariantID: 1}))
	require.NoError(t, cache.Set(ctx, "B", availability.ResolvedVariant{VariantID: 2}))
	assert.Equal(t, 2, cache.Size())

	time.Sleep(5 * time.Millisecond)
	cache.cleanup()
	assert.Zero(t, cache.Size())
}

func TestInMemoryVariantCache_CloseIsIdempotent(t *testing.T) {
	cache := NewInMemoryVariantCache(time.Minute)
	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())
}
