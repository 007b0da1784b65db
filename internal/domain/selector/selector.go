// Package selector picks the canonical result when a competitor has several
// recorded rounds of the same event at the same meet.
package selector

import (
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ordering"
)

// Weight orders result kinds: Final over Prelim over anything else.
func Weight(k model.Kind) int {
	switch k {
	case model.KindFinal:
		return 2
	case model.KindPrelim:
		return 1
	default:
		return 0
	}
}

// Prefer returns whichever of existing and candidate is canonical. A higher
// kind weight wins; on equal weight the lower place wins when both results
// were placed. Otherwise existing is kept.
func Prefer(existing, candidate model.Result) model.Result {
	we, wc := Weight(existing.Kind), Weight(candidate.Kind)
	if wc != we {
		if wc > we {
			return candidate
		}
		return existing
	}
	if existing.HasPlace() && candidate.HasPlace() && *candidate.Place < *existing.Place {
		return candidate
	}
	return existing
}

// Select returns the canonical result among results, which are assumed to
// share a key.
func Select(results []model.Result) (model.Result, bool) {
	if len(results) == 0 {
		return model.Result{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		best = Prefer(best, r)
	}
	return best, true
}

// PreferValue is Prefer with ties on kind broken by the better value.
// Results without a value lose to results with one.
func PreferValue(existing, candidate model.Result, lowerIsBetter bool) model.Result {
	we, wc := Weight(existing.Kind), Weight(candidate.Kind)
	if wc != we {
		if wc > we {
			return candidate
		}
		return existing
	}
	switch {
	case candidate.Value == nil:
		return existing
	case existing.Value == nil:
		return candidate
	case ordering.Better(lowerIsBetter, *candidate.Value, *existing.Value):
		return candidate
	default:
		return existing
	}
}

// SelectByValue returns the canonical result using PreferValue.
func SelectByValue(results []model.Result, lowerIsBetter bool) (model.Result, bool) {
	if len(results) == 0 {
		return model.Result{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		best = PreferValue(best, r, lowerIsBetter)
	}
	return best, true
}

// Canonicalize collapses results to one per key, keeping first-seen key
// order.
func Canonicalize(results []model.Result) []model.Result {
	if len(results) == 0 {
		return nil
	}
	index := make(map[model.ResultKey]int, len(results))
	out := make([]model.Result, 0, len(results))
	for _, r := range results {
		k := r.Key()
		if i, ok := index[k]; ok {
			out[i] = Prefer(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}
