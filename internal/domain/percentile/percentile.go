// Package percentile computes percentile cut points over filtered results.
//
// Percentile p is the mark that beats p% of the population in both
// directions: timed events query the 1-p/100 quantile of the ascending
// population, field events the p/100 quantile.
package percentile

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ordering"
	"github.com/okian/trackrank/internal/domain/selector"
)

// Defaults and selectable values.
var (
	DefaultPercentiles = []float64{25, 50, 75}
	Choices            = []float64{10, 25, 50, 75, 90, 95}
	GradeLevels        = []string{"FR", "SO", "JR", "SR"}
	DefaultEvents      = []string{
		"100 Meters", "200 Meters", "400 Meters", "800 Meters", "1600 Meters", "3200 Meters",
		"110 Hurdles", "300 Hurdles",
		"4 x 100 Relay", "4 x 400 Relay", "4 x 800 Relay",
		"High Jump", "Long Jump", "Discus", "Shot Put", "Pole Vault",
	}
)

// Girls run the short hurdles over 100m; requests for the boys' name are
// answered from the girls' event.
const (
	boysHurdles  = "110 Hurdles"
	girlsHurdles = "100 Hurdles"
)

// Request selects the population and cut points. Empty slices mean "all"
// except Percentiles, Events and Genders which fall back to defaults.
type Request struct {
	Events      []string
	Genders     []model.Gender
	Percentiles []float64
	Years       []int
	MeetTypes   []model.MeetType
	GradeLevels []string
}

// Row holds the cut points for one gender and event.
type Row struct {
	Gender model.Gender `json:"gender"`
	Event  string       `json:"event"`
	Count  int          `json:"count"`
	Values []string     `json:"values"`
	Raw    []float64    `json:"raw_values"`
}

// Table is the percentile report. Values in each row align with Percentiles.
type Table struct {
	Percentiles []float64 `json:"percentiles"`
	Rows        []Row     `json:"rows"`
}

// EventFor returns the event name results are stored under for gender.
func EventFor(gender model.Gender, event string) string {
	if gender == model.GenderGirls && event == boysHurdles {
		return girlsHurdles
	}
	return event
}

// Quantile interpolates linearly between order statistics of the ascending
// slice sorted at fraction q in [0, 1].
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := Position(n, q)
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Position is the fractional index queried for fraction q over n values.
func Position(n int, q float64) float64 {
	q = math.Max(0, math.Min(1, q))
	return float64(n-1) * q
}

// Fraction maps percentile p to the quantile fraction queried for the
// ordering direction.
func Fraction(p float64, lowerIsBetter bool) float64 {
	if lowerIsBetter {
		return 1 - p/100
	}
	return p / 100
}

// Compute builds the percentile table for req over results. Results are
// collapsed to one per competitor, meet and event before counting. Rows with
// no marks are omitted.
func Compute(results []model.Result, req Request, catalog model.Catalog) (*Table, error) {
	req = withDefaults(req)
	for _, p := range req.Percentiles {
		if p <= 0 || p > 100 || math.IsNaN(p) {
			return nil, fmt.Errorf("percentile %v out of range: %w", p, model.ErrInvalidScope)
		}
	}

	type rowKey struct {
		gender model.Gender
		event  string
	}
	populations := make(map[rowKey][]float64)
	wanted := make(map[rowKey]struct{})
	for _, g := range req.Genders {
		for _, e := range req.Events {
			wanted[rowKey{g, EventFor(g, e)}] = struct{}{}
		}
	}

	years := setOf(req.Years)
	meetTypes := setOf(req.MeetTypes)
	grades := setOf(req.GradeLevels)

	for _, r := range selector.Canonicalize(results) {
		k := rowKey{r.Meet.Gender, r.Event}
		if _, ok := wanted[k]; !ok {
			continue
		}
		if r.Value == nil || codec.IsNoMark(*r.Value) {
			continue
		}
		if !matches(years, r.Meet.Year) || !matches(meetTypes, r.Meet.Type) {
			continue
		}
		if len(grades) > 0 && !catalog.Category(r.Event).IsRelay() && !matches(grades, r.Grade) {
			continue
		}
		populations[k] = append(populations[k], *r.Value)
	}

	table := &Table{Percentiles: slices.Clone(req.Percentiles)}
	for k, values := range populations {
		cat := catalog.Category(k.event)
		lower := ordering.IsLowerBetter(cat)
		slices.Sort(values)

		row := Row{Gender: k.gender, Event: k.event, Count: len(values)}
		for _, p := range req.Percentiles {
			v := Quantile(values, Fraction(p, lower))
			row.Raw = append(row.Raw, v)
			row.Values = append(row.Values, codec.Format(cat, v))
		}
		table.Rows = append(table.Rows, row)
	}

	slices.SortFunc(table.Rows, func(a, b Row) int {
		if c := cmp.Compare(genderOrder(a.Gender), genderOrder(b.Gender)); c != 0 {
			return c
		}
		return cmp.Compare(a.Event, b.Event)
	})
	return table, nil
}

func withDefaults(req Request) Request {
	if len(req.Events) == 0 {
		req.Events = DefaultEvents
	}
	if len(req.Genders) == 0 {
		req.Genders = model.Genders
	}
	if len(req.Percentiles) == 0 {
		req.Percentiles = DefaultPercentiles
	}
	return req
}

func genderOrder(g model.Gender) int {
	if i := slices.Index(model.Genders, g); i >= 0 {
		return i
	}
	return len(model.Genders)
}

func setOf[T comparable](values []T) map[T]struct{} {
	if len(values) == 0 {
		return nil
	}
	s := make(map[T]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// matches reports whether v is in s; an empty set matches everything.
func matches[T comparable](s map[T]struct{}, v T) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[v]
	return ok
}
