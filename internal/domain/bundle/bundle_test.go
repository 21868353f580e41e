package bundle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBundle(t *testing.T) {
	valid := LineItem{
		ProductHandle: "poster-frame",
		Quantity:      decimal.NewFromInt(1),
		Properties:    []Property{{Name: "Frame", Value: "Matte Black"}},
	}

	t.Run("Two valid items", func(t *testing.T) {
		b, err := NewBundle([]LineItem{valid, valid})
		require.NoError(t, err)
		assert.Equal(t, "poster-frame", b.Items[0].ProductHandle)
		assert.Equal(t, "poster-frame", b.Items[1].ProductHandle)
	})

	t.Run("One item", func(t *testing.T) {
		_, err := NewBundle([]LineItem{valid})
		assert.ErrorIs(t, err, ErrWrongItemCount)
	})

	t.Run("Three items", func(t *testing.T) {
		_, err := NewBundle([]LineItem{valid, valid, valid})
		assert.ErrorIs(t, err, ErrWrongItemCount)
	})

	t.Run("Zero quantity", func(t *testing.T) {
		zero := valid
		zero.Quantity = decimal.Zero
		_, err := NewBundle([]LineItem{valid, zero})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("Negative quantity", func(t *testing.T) {
		neg := valid
		neg.Quantity = decimal.NewFromInt(-2)
		_, err := NewBundle([]LineItem{neg, valid})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestLineItem_Selection(t *testing.T) {
	li := LineItem{
		Quantity: decimal.NewFromInt(1),
		Properties: []Property{
			{Name: "Frame", Value: "Matte Black"},
			{Name: "_builder_id", Value: "12345"},
			{Name: "Size", Value: ""},
		},
	}
	sel, err := li.Selection()
	require.NoError(t, err)
	assert.Equal(t, Selection{"Frame": "Matte Black"}, sel)
}
