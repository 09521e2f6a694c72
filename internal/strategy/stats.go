package strategy

import (
	"math"

	"github.com/shopspring/decimal"
)

// average is the arithmetic mean of a price window.
func average(window []decimal.Decimal) decimal.Decimal {
	if len(window) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range window {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(window))))
}

// meanStddev returns the mean and population standard deviation of a
// window.
func meanStddev(window []float64) (mean, std float64) {
	if len(window) == 0 {
		return 0, 0
	}
	for _, v := range window {
		mean += v
	}
	mean /= float64(len(window))
	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(window))
	return mean, math.Sqrt(variance)
}

// zScore measures how far value sits from the window mean, in standard
// deviations. A zero-variance window yields zero.
func zScore(value float64, window []float64) float64 {
	mean, std := meanStddev(window)
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}

// trimWindow keeps at most maxLen trailing elements.
func trimWindow[T any](window []T, maxLen int) []T {
	if len(window) > maxLen {
		return window[len(window)-maxLen:]
	}
	return window
}
