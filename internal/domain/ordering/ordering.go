// Package ordering decides which of two canonical values is better.
//
// Every comparison and sort over performance values goes through this
// package. Time events and relays rank ascending, field events descending.
package ordering

import (
	"slices"

	"github.com/okian/trackrank/internal/domain/model"
)

// IsLowerBetter reports whether smaller values are better for category.
// Anything that is not a field event is timed.
func IsLowerBetter(c model.Category) bool {
	return c != model.CategoryField
}

// Better reports whether a is strictly better than b.
func Better(lowerIsBetter bool, a, b float64) bool {
	if lowerIsBetter {
		return a < b
	}
	return a > b
}

// Compare returns -1 if a is better than b, 1 if worse and 0 if equal.
func Compare(lowerIsBetter bool, a, b float64) int {
	switch {
	case Better(lowerIsBetter, a, b):
		return -1
	case Better(lowerIsBetter, b, a):
		return 1
	default:
		return 0
	}
}

// Best returns the best value in values.
func Best(lowerIsBetter bool, values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	best := values[0]
	for _, v := range values[1:] {
		if Better(lowerIsBetter, v, best) {
			best = v
		}
	}
	return best, true
}

// SortBestFirst sorts values in place, best first.
func SortBestFirst(lowerIsBetter bool, values []float64) {
	slices.SortFunc(values, func(a, b float64) int {
		return Compare(lowerIsBetter, a, b)
	})
}
