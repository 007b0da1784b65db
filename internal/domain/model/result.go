package model

// Kind is the round a result was recorded in.
type Kind string

const (
	KindFinal  Kind = "Final"
	KindPrelim Kind = "Prelim"
)

// Source tags where a result came from. The zero value matches any source
// when used as a filter.
type Source string

const (
	SourceIndividual Source = "individual"
	SourceRelay      Source = "relay"
)

// Result is one recorded performance. Individual and relay results share
// this shape; CompetitorID is the athlete id for individual results and the
// school id for relays. Name is the athlete or team name as joined by the
// store.
type Result struct {
	Source       Source   `json:"source"`
	CompetitorID int64    `json:"competitor_id"`
	Name         string   `json:"name,omitempty"`
	SchoolID     int64    `json:"school_id"`
	SchoolName   string   `json:"school,omitempty"`
	Meet         Meet     `json:"meet"`
	Event        string   `json:"event"`
	Kind         Kind     `json:"result_type"`
	Display      string   `json:"result"`
	Value        *float64 `json:"result_value,omitempty"`
	Place        *int     `json:"place,omitempty"`
	Grade        string   `json:"grade,omitempty"`
	AthleteNames string   `json:"athlete_names,omitempty"`
}

// ResultKey identifies the competitor, meet and event a result belongs to.
// Results sharing a key differ only by kind.
type ResultKey struct {
	Source       Source
	CompetitorID int64
	MeetID       int64
	Event        string
}

// Key returns the grouping key of r.
func (r Result) Key() ResultKey {
	return ResultKey{Source: r.Source, CompetitorID: r.CompetitorID, MeetID: r.Meet.ID, Event: r.Event}
}

// HasValue reports whether r carries a comparable numeric value.
func (r Result) HasValue() bool { return r.Value != nil }

// HasPlace reports whether r carries a positive finishing place.
func (r Result) HasPlace() bool { return r.Place != nil && *r.Place > 0 }

// PlaceOr returns the place or def when absent.
func (r Result) PlaceOr(def int) int {
	if r.Place == nil {
		return def
	}
	return *r.Place
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
