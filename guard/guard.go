// Package guard holds the pure quantity invariants for cart lines. Nothing
// here touches the network or any store, so every rule is unit-testable in
// isolation.
package guard

import "bilhete/models"

// MaxPerPurchase is the hard per-line ceiling, a business rule independent of
// stock.
const MaxPerPurchase = 10

// Ceiling returns the effective maximum for a line: min(available, 10),
// never negative.
func Ceiling(availableQuantity int) int {
	if availableQuantity < 0 {
		return 0
	}
	if availableQuantity > MaxPerPurchase {
		return MaxPerPurchase
	}
	return availableQuantity
}

// Clamp forces a requested quantity into [0, Ceiling(availableQuantity)].
func Clamp(requested, availableQuantity int) int {
	if requested < 0 {
		return 0
	}
	if c := Ceiling(availableQuantity); requested > c {
		return c
	}
	return requested
}

// CanIncrement reports whether one more unit fits under the line's ceiling.
func CanIncrement(item models.CartItem) bool {
	return item.Quantity < Ceiling(item.AvailableQuantity)
}

// CanDecrement is the floor for the standalone cart-line control, which may
// drop a line to zero (removing it).
func CanDecrement(item models.CartItem) bool {
	return item.Quantity > 0
}

// CanStepDown is the floor for the checkout quantity stepper, which must keep
// at least one unit while the line is visible. The two floors are distinct UI
// contracts; do not unify them.
func CanStepDown(item models.CartItem) bool {
	return item.Quantity > 1
}
