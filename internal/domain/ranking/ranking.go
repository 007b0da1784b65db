// Package ranking assigns competition ranks within a cohort of results.
//
// Ties share a rank and the next distinct value is ranked after every entry
// strictly ahead of it (1, 1, 3). A secondary sort on the entry key keeps the
// output deterministic.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/trackrank/internal/domain/ordering"
)

// DefaultLimit is the leaderboard size when none is configured.
const DefaultLimit = 10

// Key identifies an entry within a cohort.
type Key struct {
	CompetitorID int64 `json:"competitor_id"`
	MeetID       int64 `json:"meet_id"`
}

// Entry is one rankable value with the fields shown on a leaderboard.
type Entry struct {
	Key
	Value      float64 `json:"result_value"`
	Display    string  `json:"result"`
	Name       string  `json:"name"`
	School     string  `json:"school,omitempty"`
	SchoolID   int64   `json:"school_id,omitempty"`
	Grade      string  `json:"grade,omitempty"`
	MeetHost   string  `json:"meet_host,omitempty"`
	Place      *int    `json:"place,omitempty"`
	Enrollment *int    `json:"-"`
}

// RankedEntry is a leaderboard row.
type RankedEntry struct {
	Entry
	Rank     int  `json:"rank"`
	IsTarget bool `json:"is_target"`
}

// Criteria describes the filter a cohort was built with.
type Criteria struct {
	Enrollment int    `json:"enrollment,omitempty"`
	Min        int    `json:"min,omitempty"`
	Max        int    `json:"max,omitempty"`
	Grade      string `json:"grade,omitempty"`
}

// RankInfo is the target's standing within a cohort.
type RankInfo struct {
	Rank        int           `json:"rank"`
	Total       int           `json:"total"`
	Leaderboard []RankedEntry `json:"leaderboard"`
	Criteria    *Criteria     `json:"criteria,omitempty"`
}

// Filter selects the entries that belong to a cohort.
type Filter func(Entry) bool

// RankWithin ranks entries and locates target. It returns nil when the
// filtered cohort is empty or does not contain target.
func RankWithin(entries []Entry, target Key, lowerIsBetter bool, opts ...Option) *RankInfo {
	o := options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}

	cohort := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if o.filter == nil || o.filter(e) {
			cohort = append(cohort, e)
		}
	}
	if len(cohort) == 0 {
		return nil
	}

	slices.SortStableFunc(cohort, func(a, b Entry) int {
		if c := ordering.Compare(lowerIsBetter, a.Value, b.Value); c != 0 {
			return c
		}
		return compareKeys(a.Key, b.Key)
	})
	ranks := competitionRanks(cohort)

	targetIdx := slices.IndexFunc(cohort, func(e Entry) bool { return e.Key == target })
	if targetIdx < 0 {
		return nil
	}

	info := &RankInfo{
		Rank:        ranks[targetIdx],
		Total:       len(cohort),
		Leaderboard: leaderboard(cohort, ranks, targetIdx, o.limit),
		Criteria:    o.criteria,
	}
	return info
}

// competitionRanks assigns each sorted entry the 1-based position of the
// first entry sharing its value.
func competitionRanks(sorted []Entry) []int {
	ranks := make([]int, len(sorted))
	for i := range sorted {
		if i > 0 && sorted[i].Value == sorted[i-1].Value {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// leaderboard returns the top limit entries plus the target when it falls
// outside them, de-duplicated by key.
func leaderboard(sorted []Entry, ranks []int, targetIdx, limit int) []RankedEntry {
	target := sorted[targetIdx].Key
	seen := make(map[Key]struct{}, limit+1)
	out := make([]RankedEntry, 0, limit+1)

	add := func(i int) {
		if _, dup := seen[sorted[i].Key]; dup {
			return
		}
		seen[sorted[i].Key] = struct{}{}
		out = append(out, RankedEntry{Entry: sorted[i], Rank: ranks[i], IsTarget: sorted[i].Key == target})
	}

	for i := 0; i < len(sorted) && i < limit; i++ {
		add(i)
	}
	add(targetIdx)
	return out
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.CompetitorID, b.CompetitorID); c != 0 {
		return c
	}
	return cmp.Compare(a.MeetID, b.MeetID)
}
