// Package badges derives postseason achievements, playoff history and
// personal bests from an athlete's results.
package badges

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/selector"
	"github.com/okian/trackrank/internal/domain/types"
)

// DefaultPlacerThreshold is the podium size used when a stage has none set.
const DefaultPlacerThreshold = 3

// Tier is the badge level earned at a stage.
type Tier string

const (
	TierPlacer    Tier = "Placer"
	TierQualifier Tier = "Qualifier"
)

// Thresholds sets the placer cutoff per stage.
type Thresholds map[model.MeetType]int

// For returns the cutoff for stage.
func (t Thresholds) For(stage model.MeetType) int {
	if n, ok := t[stage]; ok && n > 0 {
		return n
	}
	return DefaultPlacerThreshold
}

// Entry is one result contributing to a badge.
type Entry struct {
	Year       int    `json:"year"`
	Event      string `json:"event"`
	MeetID     int64  `json:"meet_id"`
	Result     string `json:"result"`
	Place      *int   `json:"place,omitempty"`
	PlaceLabel string `json:"place_label,omitempty"`
	Placer     bool   `json:"placer"`
}

// Badge summarises an athlete's results at one stage.
type Badge struct {
	Stage          model.MeetType `json:"stage"`
	Tier           Tier           `json:"tier"`
	Count          int            `json:"count"`
	Label          string         `json:"label"`
	QualifierCount int            `json:"qualifier_count"`
	PlacerCount    int            `json:"placer_count"`
	Entries        []Entry        `json:"entries"`
}

// Compute returns one badge per stage the athlete reached, in stage order.
// Results are collapsed to their canonical round first.
func Compute(results []model.Result, thresholds Thresholds) []Badge {
	byStage := make(map[model.MeetType][]model.Result)
	for _, r := range selector.Canonicalize(results) {
		if r.Meet.Type.IsStage() {
			byStage[r.Meet.Type] = append(byStage[r.Meet.Type], r)
		}
	}

	var out []Badge
	for _, stage := range model.Stages {
		rs := byStage[stage]
		if len(rs) == 0 {
			continue
		}
		limit := thresholds.For(stage)
		b := Badge{Stage: stage, QualifierCount: len(rs)}
		for _, r := range rs {
			placer := r.HasPlace() && *r.Place <= limit
			if placer {
				b.PlacerCount++
			}
			b.Entries = append(b.Entries, Entry{
				Year:       r.Meet.Year,
				Event:      r.Event,
				MeetID:     r.Meet.ID,
				Result:     r.Display,
				Place:      r.Place,
				PlaceLabel: types.PlaceLabel(r.Place),
				Placer:     placer,
			})
		}
		if b.PlacerCount > 0 {
			b.Tier, b.Count = TierPlacer, b.PlacerCount
		} else {
			b.Tier, b.Count = TierQualifier, b.QualifierCount
		}
		b.Label = label(b.Count, stage, b.Tier)
		slices.SortStableFunc(b.Entries, func(x, y Entry) int {
			if c := cmp.Compare(y.Year, x.Year); c != 0 {
				return c
			}
			return cmp.Compare(y.Event, x.Event)
		})
		out = append(out, b)
	}
	return out
}

func label(n int, stage model.MeetType, tier Tier) string {
	if n > 1 {
		return fmt.Sprintf("%d x %s %s", n, stage, tier)
	}
	return fmt.Sprintf("%s %s", stage, tier)
}
