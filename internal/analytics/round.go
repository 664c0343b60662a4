package analytics

import "math"

// Round1 rounds to one decimal place, half away from zero.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

// Round2 rounds to two decimal places, used for currency.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// percentOf returns round1(part/total*100), or 0 when total is 0.
func percentOf(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return Round1(part / total * 100)
}

// safeDiv returns a/b, or 0 when b is 0.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
