// Package types contains display helpers shared across the application
package types

import (
	"math"
	"strconv"
)

// Ordinal renders n as "1st", "2nd", "11th"...
func Ordinal(n int) string {
	suffix := "th"
	if m := n % 100; m < 10 || m > 20 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// PlaceLabel renders a finishing place, or "" when absent.
func PlaceLabel(place *int) string {
	if place == nil || *place <= 0 {
		return ""
	}
	return Ordinal(*place)
}

// Percent renders v rounded to one decimal, without a trailing ".0".
func Percent(v float64) string {
	r := math.Round(v*10) / 10
	if r == math.Trunc(r) {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}
