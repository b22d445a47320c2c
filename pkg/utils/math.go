package utils

import "math"

// RoundTo rounds x half away from zero to the given number of decimal places.
func RoundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Scale maps value in [0, max] onto [0, width], rounding to the nearest
// cell. Any positive value gets at least one cell so it stays visible next
// to zero.
func Scale(value, max float64, width int) int {
	if value <= 0 || max <= 0 || width <= 0 {
		return 0
	}
	n := int(math.Round(value / max * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}
