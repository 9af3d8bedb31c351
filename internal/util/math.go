package util

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds a score to the 0..100 scale.
func ClampScore(v int) int {
	return Clamp(v, 0, 100)
}

// RoundInt rounds half away from zero.
func RoundInt(v float64) int {
	return int(math.Round(v))
}

func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
