package ranking

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/trackrank/internal/domain/model"
)

// DefaultBand is the like-school enrollment tolerance.
const DefaultBand = 0.25

// Band is an inclusive enrollment range around a school's headcount.
type Band struct {
	Enrollment int
	Min        int
	Max        int
}

// EnrollmentBand returns the range enrollment*(1-band) to enrollment*(1+band),
// each bound rounded half away from zero.
func EnrollmentBand(enrollment int, band float64) Band {
	e := float64(enrollment)
	return Band{
		Enrollment: enrollment,
		Min:        int(math.Round(e * (1 - band))),
		Max:        int(math.Round(e * (1 + band))),
	}
}

// Contains reports whether n falls inside the band.
func (b Band) Contains(n int) bool { return n >= b.Min && n <= b.Max }

// Filter accepts entries whose school enrollment falls inside the band.
// Entries without a known enrollment are excluded.
func (b Band) Filter() Filter {
	return func(e Entry) bool {
		return e.Enrollment != nil && b.Contains(*e.Enrollment)
	}
}

// Criteria describes the band.
func (b Band) Criteria() Criteria {
	return Criteria{Enrollment: b.Enrollment, Min: b.Min, Max: b.Max}
}

// SameGrade accepts entries with the given grade label.
func SameGrade(grade string) Filter {
	return func(e Entry) bool { return e.Grade == grade }
}

// CohortOptions configures Cohorts.
type CohortOptions struct {
	Limit     int
	Band      float64
	Relay     bool
	SameGrade bool
}

// CohortRankings holds the three standard cohorts for one target.
type CohortRankings struct {
	Overall     *RankInfo `json:"overall"`
	LikeSchools *RankInfo `json:"like_schools"`
	SameGrade   *RankInfo `json:"same_grade,omitempty"`
}

// Cohorts ranks target overall, among like-sized schools and within its
// grade, all from the same entry set. A grade cohort for a relay event is an
// invalid scope. Missing targets yield empty rankings.
func Cohorts(entries []Entry, target Key, lowerIsBetter bool, o CohortOptions) (CohortRankings, error) {
	if o.Relay && o.SameGrade {
		return CohortRankings{}, fmt.Errorf("grade cohort for relay event: %w", model.ErrInvalidScope)
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Band <= 0 {
		o.Band = DefaultBand
	}

	var out CohortRankings
	idx := slices.IndexFunc(entries, func(e Entry) bool { return e.Key == target })
	if idx < 0 {
		return out, nil
	}
	self := entries[idx]

	out.Overall = RankWithin(entries, target, lowerIsBetter, WithLimit(o.Limit))

	if self.Enrollment != nil {
		band := EnrollmentBand(*self.Enrollment, o.Band)
		out.LikeSchools = RankWithin(entries, target, lowerIsBetter,
			WithLimit(o.Limit), WithFilter(band.Filter()), WithCriteria(band.Criteria()))
	}

	if o.SameGrade && self.Grade != "" {
		out.SameGrade = RankWithin(entries, target, lowerIsBetter,
			WithLimit(o.Limit), WithFilter(SameGrade(self.Grade)), WithCriteria(Criteria{Grade: self.Grade}))
	}
	return out, nil
}
