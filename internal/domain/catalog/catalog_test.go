package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlecheck/backend/internal/domain/shared"
)

func TestCatalog_ResolveSKU(t *testing.T) {
	c := Default()

	t.Run("Known combination", func(t *testing.T) {
		sku, err := c.ResolveSKU("poster-frame", "Matte Black / 24x36")
		require.NoError(t, err)
		assert.Equal(t, "FRAME-MB-2436", sku)
	})

	t.Run("Handle and key normalized", func(t *testing.T) {
		sku, err := c.ResolveSKU(" poster-frame ", "Matte  Black / 24x36")
		require.NoError(t, err)
		assert.Equal(t, "FRAME-MB-2436", sku)
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, err := c.ResolveSKU("mug", "Matte Black / 24x36")
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, ErrCodeUnknownProduct, derr.Code)
	})

	t.Run("Unknown combination carries product and key", func(t *testing.T) {
		_, err := c.ResolveSKU("poster-frame", "Chrome / 4x6")
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, ErrCodeUnknownCombination, derr.Code)
		assert.Contains(t, derr.Message, "Chrome / 4x6")
		assert.Contains(t, derr.Message, "poster-frame")
	})
}

func TestCatalog_OptionOrder(t *testing.T) {
	c := Default()

	order, err := c.OptionOrder("poster-frame")
	require.NoError(t, err)
	assert.Equal(t, []string{"Frame", "Size"}, order)

	_, err = c.OptionOrder("mug")
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, ErrCodeUnknownProduct, derr.Code)
}

func TestCatalog_Merge(t *testing.T) {
	c := Default()
	c.Merge(map[string]ProductEntry{
		"poster-frame": {
			SKUs: map[string]string{
				"Matte Black / 24x36": "FRAME-MB-2436-R2",
				"Chrome / 24x36":      "FRAME-CH-2436",
			},
		},
		"mug": {
			Options: []string{"Color"},
			SKUs:    map[string]string{"White": "MUG-WH"},
		},
	})

	t.Run("Overlay replaces existing key", func(t *testing.T) {
		sku, err := c.ResolveSKU("poster-frame", "Matte Black / 24x36")
		require.NoError(t, err)
		assert.Equal(t, "FRAME-MB-2436-R2", sku)
	})

	t.Run("Overlay keeps untouched keys", func(t *testing.T) {
		sku, err := c.ResolveSKU("poster-frame", "Walnut / 18x24")
		require.NoError(t, err)
		assert.Equal(t, "FRAME-WN-1824", sku)
	})

	t.Run("Overlay adds keys and products", func(t *testing.T) {
		sku, err := c.ResolveSKU("poster-frame", "Chrome / 24x36")
		require.NoError(t, err)
		assert.Equal(t, "FRAME-CH-2436", sku)

		sku, err = c.ResolveSKU("mug", "White")
		require.NoError(t, err)
		assert.Equal(t, "MUG-WH", sku)
	})

	t.Run("Option order preserved when overlay omits it", func(t *testing.T) {
		order, err := c.OptionOrder("poster-frame")
		require.NoError(t, err)
		assert.Equal(t, []string{"Frame", "Size"}, order)
	})
}
