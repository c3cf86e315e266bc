// Package pricing holds the pure price arithmetic. Nothing here does
// I/O; every function is deterministic.
package pricing

import "math"

// Discount types carried by combo items.
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

// roundHalfUp rounds to the smallest currency unit, halves away from zero.
func roundHalfUp(x float64) int64 {
	if x < 0 {
		return -int64(math.Floor(-x + 0.5))
	}
	return int64(math.Floor(x + 0.5))
}

// FinalPrice computes the selling price of a variant:
// (base + modifier) minus discountPercent of it, rounded half-up to the
// smallest currency unit. Rounding applies to the final price, not the
// discount amount, so a price landing on .5 goes up. The result is
// clamped at zero; clamped reports when that happened so the caller can
// log a data-integrity warning instead of failing the request.
func FinalPrice(basePrice, priceModifier int64, discountPercent float64) (price int64, clamped bool) {
	adjusted := basePrice + priceModifier
	final := roundHalfUp(float64(adjusted) - float64(adjusted)*discountPercent/100)
	if final < 0 {
		return 0, true
	}
	return final, false
}

// Line multiplies a unit price out to a line total.
func Line(unitPrice int64, quantity int) int64 {
	return unitPrice * int64(quantity)
}

// ItemContribution prices one combo item line after its own discount,
// rounding the discounted line half-up like FinalPrice does. The
// result is clamped at zero so a FIXED discount larger than the line
// never goes negative.
func ItemContribution(unitPrice int64, quantity int, discount float64, discountType string) int64 {
	line := Line(unitPrice, quantity)
	var final int64
	switch discountType {
	case DiscountPercentage:
		final = roundHalfUp(float64(line) - float64(line)*discount/100)
	case DiscountFixed:
		final = roundHalfUp(float64(line) - discount)
	default:
		return line
	}
	if final < 0 {
		return 0
	}
	return final
}

// Savings is the difference-from-original definition: how much cheaper
// the final price is than the undiscounted one.
func Savings(originalPrice, finalPrice int64) int64 {
	if originalPrice < finalPrice {
		return 0
	}
	return originalPrice - finalPrice
}
