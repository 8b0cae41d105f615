package guard

import (
	"testing"

	"bilhete/models"

	"github.com/stretchr/testify/assert"
)

func TestClampRange(t *testing.T) {
	// clamp must land in [0, min(available, 10)] for any inputs
	for requested := -5; requested <= 25; requested++ {
		for available := 0; available <= 15; available++ {
			got := Clamp(requested, available)
			assert.GreaterOrEqual(t, got, 0, "requested=%d available=%d", requested, available)
			assert.LessOrEqual(t, got, Ceiling(available), "requested=%d available=%d", requested, available)
		}
	}
}

func TestClampValues(t *testing.T) {
	cases := []struct {
		requested, available, want int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{-3, 5, 0},
		{3, 5, 3},
		{7, 5, 5},
		{12, 100, 10},
		{10, 10, 10},
		{11, 11, 10},
		{4, -1, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Clamp(c.requested, c.available), "Clamp(%d, %d)", c.requested, c.available)
	}
}

func TestCanIncrement(t *testing.T) {
	assert.True(t, CanIncrement(models.CartItem{Quantity: 2, AvailableQuantity: 5}))
	assert.False(t, CanIncrement(models.CartItem{Quantity: 5, AvailableQuantity: 5}))
	// stock above the hard ceiling does not raise the ceiling
	assert.False(t, CanIncrement(models.CartItem{Quantity: 10, AvailableQuantity: 200}))
	assert.True(t, CanIncrement(models.CartItem{Quantity: 9, AvailableQuantity: 200}))
}

func TestDecrementFloorsStaySeparate(t *testing.T) {
	one := models.CartItem{Quantity: 1}
	zero := models.CartItem{Quantity: 0}

	// cart-line control may go to zero
	assert.True(t, CanDecrement(one))
	assert.False(t, CanDecrement(zero))

	// checkout stepper keeps at least one unit
	assert.False(t, CanStepDown(one))
	assert.True(t, CanStepDown(models.CartItem{Quantity: 2}))
}
