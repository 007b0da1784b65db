package percentile

import (
	"slices"

	"github.com/okian/trackrank/internal/domain/model"
)

// Options lists the filter values a client can choose from.
type Options struct {
	Events             []string         `json:"events"`
	Genders            []model.Gender   `json:"genders"`
	MeetTypes          []model.MeetType `json:"meet_types"`
	GradeLevels        []string         `json:"grade_levels"`
	Percentiles        []float64        `json:"percentiles"`
	DefaultPercentiles []float64        `json:"default_percentiles"`
	Years              []int            `json:"years"`
}

// AvailableOptions returns the filter choices given the years present in the
// corpus, newest first.
func AvailableOptions(years []int) Options {
	ys := slices.Clone(years)
	slices.Sort(ys)
	slices.Reverse(ys)
	return Options{
		Events:             slices.Clone(DefaultEvents),
		Genders:            slices.Clone(model.Genders),
		MeetTypes:          slices.Clone(model.Stages),
		GradeLevels:        slices.Clone(GradeLevels),
		Percentiles:        slices.Clone(Choices),
		DefaultPercentiles: slices.Clone(DefaultPercentiles),
		Years:              slices.Compact(ys),
	}
}
