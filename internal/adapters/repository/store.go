// Package repository provides read access to the results corpus.
package repository

import (
	"context"
	"slices"

	"github.com/okian/trackrank/internal/domain/model"
)

// Store is the read-only results corpus. Unknown ids return ErrNotFound.
type Store interface {
	// Events lists the event catalog.
	Events(ctx context.Context) ([]model.Event, error)
	// EventCategory returns the category of a known event.
	EventCategory(ctx context.Context, name string) (model.Category, error)

	Meet(ctx context.Context, id int64) (model.Meet, error)
	Meets(ctx context.Context, filter MeetFilter) ([]model.Meet, error)
	Athlete(ctx context.Context, id int64) (model.Athlete, error)
	School(ctx context.Context, id int64) (model.School, error)

	// Enrollment returns a school's enrollment for a season, or false when
	// none was recorded.
	Enrollment(ctx context.Context, schoolID int64, year int) (int, bool, error)
	// Enrollments returns every recorded enrollment for a season by school.
	Enrollments(ctx context.Context, year int) (map[int64]int, error)

	// Results returns individual and relay results joined with their meet.
	Results(ctx context.Context, filter ResultFilter) ([]model.Result, error)
	// RelayResultsForAthlete returns relay results whose roster names the
	// athlete. Only relays run for the athlete's school are considered.
	RelayResultsForAthlete(ctx context.Context, athleteID int64, filter ResultFilter) ([]model.Result, error)

	// Years lists seasons with at least one meet, newest first.
	Years(ctx context.Context) ([]int, error)

	Close() error
}

// MeetFilter narrows Meets. Empty fields match everything.
type MeetFilter struct {
	Years     []int
	Genders   []model.Gender
	MeetTypes []model.MeetType
}

// Match reports whether m passes the filter.
func (f MeetFilter) Match(m model.Meet) bool {
	return in(f.Years, m.Year) && in(f.Genders, m.Gender) && in(f.MeetTypes, m.Type)
}

// ResultFilter narrows Results. Empty fields match everything.
type ResultFilter struct {
	Source        model.Source
	Events        []string
	Genders       []model.Gender
	MeetTypes     []model.MeetType
	Years         []int
	MinYear       int
	Kinds         []model.Kind
	MeetIDs       []int64
	CompetitorIDs []int64
	SchoolIDs     []int64
}

// Match reports whether r passes the filter.
func (f ResultFilter) Match(r model.Result) bool {
	if f.Source != "" && r.Source != f.Source {
		return false
	}
	if f.MinYear > 0 && r.Meet.Year < f.MinYear {
		return false
	}
	return in(f.Events, r.Event) &&
		in(f.Genders, r.Meet.Gender) &&
		in(f.MeetTypes, r.Meet.Type) &&
		in(f.Years, r.Meet.Year) &&
		in(f.Kinds, r.Kind) &&
		in(f.MeetIDs, r.Meet.ID) &&
		in(f.CompetitorIDs, r.CompetitorID) &&
		in(f.SchoolIDs, r.SchoolID)
}

func in[T comparable](set []T, v T) bool {
	return len(set) == 0 || slices.Contains(set, v)
}
