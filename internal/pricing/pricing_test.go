package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		modifier int64
		discount float64
		want     int64
	}{
		{"modifier and discount", 1000, 50, 10, 945},
		{"no discount", 1000, 0, 0, 1000},
		{"negative modifier", 1000, -200, 0, 800},
		{"full discount", 1000, 0, 100, 0},
		{"rounds half up", 100, 0, 2.5, 98},           // 97.5 rounds up
		{"rounds to nearest", 100, 0, 2.4, 98},        // 97.6 rounds up
		{"fractional below half", 1000, 0, 0.26, 997}, // 997.4 rounds down
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := FinalPrice(tt.base, tt.modifier, tt.discount)
			assert.Equal(t, tt.want, got)
			assert.False(t, clamped)
		})
	}
}

func TestFinalPriceClampsNegative(t *testing.T) {
	got, clamped := FinalPrice(100, -200, 10)
	assert.Equal(t, int64(0), got)
	assert.True(t, clamped)
}

func TestFinalPriceBounds(t *testing.T) {
	bases := []int64{0, 1, 999, 1000, 123456}
	modifiers := []int64{-500, 0, 50, 999}
	discounts := []float64{0, 0.5, 10, 33.3, 99, 100}

	for _, base := range bases {
		for _, modifier := range modifiers {
			for _, discount := range discounts {
				got, _ := FinalPrice(base, modifier, discount)
				assert.GreaterOrEqual(t, got, int64(0))
				if adjusted := base + modifier; adjusted >= 0 {
					assert.LessOrEqual(t, got, adjusted)
				}
			}
		}
	}
}

func TestItemContribution(t *testing.T) {
	// unit 200, qty 1, 20% off contributes 160
	assert.Equal(t, int64(160), ItemContribution(200, 1, 20, DiscountPercentage))

	// fixed discount comes straight off the line price
	assert.Equal(t, int64(350), ItemContribution(200, 2, 50, DiscountFixed))

	// fixed discount larger than the line clamps to zero
	assert.Equal(t, int64(0), ItemContribution(200, 1, 500, DiscountFixed))

	// quantity scales the line before the percentage applies
	assert.Equal(t, int64(480), ItemContribution(200, 3, 20, DiscountPercentage))

	// the discounted line rounds half-up, same direction as FinalPrice
	assert.Equal(t, int64(98), ItemContribution(100, 1, 2.5, DiscountPercentage)) // 97.5
	assert.Equal(t, int64(100), ItemContribution(100, 1, 0.5, DiscountFixed))     // 99.5
}

func TestSavings(t *testing.T) {
	assert.Equal(t, int64(145), Savings(1250, 1105))
	assert.Equal(t, int64(0), Savings(100, 100))
	// data glitch where final exceeds original never reports negative savings
	assert.Equal(t, int64(0), Savings(90, 100))
}
