// Package projection estimates where a performance would have placed
// without touching stored results.
package projection

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ordering"
	"github.com/okian/trackrank/internal/domain/selector"
	"github.com/okian/trackrank/internal/domain/types"
)

// Labels for non-numeric places.
const (
	LabelDNQ    = "DNQ for Finals"
	LabelNoData = "No comparable data"
)

// Sprint and hurdle events run in heats; only a limited field advances to
// the final.
var dnqEvents = map[string]struct{}{
	"100 Meters":  {},
	"200 Meters":  {},
	"100 Hurdles": {},
	"110 Hurdles": {},
}

// IsDNQEligible reports whether a last-place projection in event means the
// performance would not have reached the final.
func IsDNQEligible(event string) bool {
	_, ok := dnqEvents[event]
	return ok
}

// Place is a projected finish. At most one of Value, DNQ and NoData is set.
type Place struct {
	Value  int  `json:"place,omitempty"`
	DNQ    bool `json:"dnq,omitempty"`
	NoData bool `json:"no_data,omitempty"`
}

// Label renders the place for display.
func (p Place) Label() string {
	switch {
	case p.NoData:
		return LabelNoData
	case p.DNQ:
		return LabelDNQ
	default:
		return types.Ordinal(p.Value)
	}
}

// ProjectPlace returns 1 + the number of values strictly better than
// candidate. values must be sorted best first.
func ProjectPlace(candidate float64, sortedBestFirst []float64, event string, lowerIsBetter bool) Place {
	if len(sortedBestFirst) == 0 {
		return Place{NoData: true}
	}
	idx := slices.IndexFunc(sortedBestFirst, func(v float64) bool {
		return !ordering.Better(lowerIsBetter, v, candidate)
	})
	if idx < 0 {
		if IsDNQEligible(event) {
			return Place{DNQ: true}
		}
		return Place{Value: len(sortedBestFirst) + 1}
	}
	return Place{Value: idx + 1}
}

// Scope restricts the comparison population. Zero fields match everything.
type Scope struct {
	Event    string         `json:"event"`
	Category model.Category `json:"event_type"`
	Gender   model.Gender   `json:"gender,omitempty"`
	Year     int            `json:"year,omitempty"`
	MeetType model.MeetType `json:"meet_type,omitempty"`
}

func (s Scope) match(r model.Result) bool {
	return r.Event == s.Event &&
		(s.Gender == "" || r.Meet.Gender == s.Gender) &&
		(s.Year == 0 || r.Meet.Year == s.Year) &&
		(s.MeetType == "" || r.Meet.Type == s.MeetType)
}

// MeetProjection is the projection against a single meet.
type MeetProjection struct {
	MeetID     int64          `json:"meet_id"`
	Name       string         `json:"sectional_name"`
	Host       string         `json:"host,omitempty"`
	MeetNum    int            `json:"meet_num,omitempty"`
	Place      Place          `json:"projected_place"`
	PlaceLabel string         `json:"projected_place_label"`
	FieldSize  int            `json:"field_size"`
	KindCounts map[string]int `json:"result_type_counts"`
}

// Projection is the full "where would this rank" answer.
type Projection struct {
	Scope           Scope            `json:"scope"`
	Input           string           `json:"input,omitempty"`
	InputValue      float64          `json:"input_value"`
	Display         string           `json:"display"`
	Overall         Place            `json:"overall_place"`
	OverallLabel    string           `json:"overall_place_label"`
	ComparisonCount int              `json:"comparison_count"`
	Meets           []MeetProjection `json:"meets"`
}

// Project places candidate against each meet in scope and against all of
// them together. Each competitor contributes one value per meet, chosen by
// round precedence then value.
func Project(candidate float64, results []model.Result, scope Scope) *Projection {
	lower := ordering.IsLowerBetter(scope.Category)

	byMeet := make(map[int64][]model.Result)
	meets := make(map[int64]model.Meet)
	for _, r := range results {
		if !scope.match(r) {
			continue
		}
		byMeet[r.Meet.ID] = append(byMeet[r.Meet.ID], r)
		meets[r.Meet.ID] = r.Meet
	}

	out := &Projection{
		Scope:      scope,
		InputValue: candidate,
		Display:    codec.Format(scope.Category, candidate),
		Meets:      make([]MeetProjection, 0, len(byMeet)),
	}

	var all []float64
	for id, rs := range byMeet {
		chosen := perCompetitor(rs, lower)
		values := make([]float64, 0, len(chosen))
		counts := make(map[string]int)
		for _, r := range chosen {
			if r.Value == nil || codec.IsNoMark(*r.Value) {
				continue
			}
			values = append(values, *r.Value)
			kind := string(r.Kind)
			if kind == "" {
				kind = "Unknown"
			}
			counts[kind]++
		}
		ordering.SortBestFirst(lower, values)
		all = append(all, values...)

		m := meets[id]
		place := ProjectPlace(candidate, values, scope.Event, lower)
		out.Meets = append(out.Meets, MeetProjection{
			MeetID:     id,
			Name:       MeetName(m.Host, m.MeetNum),
			Host:       m.Host,
			MeetNum:    m.MeetNum,
			Place:      place,
			PlaceLabel: place.Label(),
			FieldSize:  len(values),
			KindCounts: counts,
		})
	}

	slices.SortFunc(out.Meets, func(a, b MeetProjection) int {
		if c := cmp.Compare(a.MeetNum, b.MeetNum); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	ordering.SortBestFirst(lower, all)
	out.Overall = ProjectPlace(candidate, all, scope.Event, lower)
	out.OverallLabel = out.Overall.Label()
	out.ComparisonCount = len(all)
	return out
}

// ProjectText parses text for the scope's event category and projects it.
func ProjectText(text string, results []model.Result, scope Scope) (*Projection, error) {
	v, err := codec.Parse(scope.Category, text)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", scope.Event, err)
	}
	p := Project(v, results, scope)
	p.Input = text
	return p, nil
}

// MeetName labels a meet for display, e.g. "Carmel (Meet 2)".
func MeetName(host string, meetNum int) string {
	switch {
	case host != "" && meetNum > 0:
		return fmt.Sprintf("%s (Meet %d)", host, meetNum)
	case host != "":
		return host
	case meetNum > 0:
		return fmt.Sprintf("Meet %d", meetNum)
	default:
		return "Unknown Sectional"
	}
}

// perCompetitor keeps one result per competitor within a single meet.
func perCompetitor(results []model.Result, lowerIsBetter bool) []model.Result {
	type competitor struct {
		source model.Source
		id     int64
	}
	index := make(map[competitor]int)
	var out []model.Result
	for _, r := range results {
		k := competitor{r.Source, r.CompetitorID}
		if i, ok := index[k]; ok {
			out[i] = selector.PreferValue(out[i], r, lowerIsBetter)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}
