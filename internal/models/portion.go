package models

import "math"

// MaxPortion is the largest portion accepted from user input.
const MaxPortion = 100000

// ClampPortion truncates v to an integer within [0, MaxPortion].
// Non-finite input becomes 0.
func ClampPortion(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Trunc(v)
	if v < 0 {
		return 0
	}
	if v > MaxPortion {
		return MaxPortion
	}
	return v
}

// NonNegative returns v, or 0 when v is negative or not finite.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
