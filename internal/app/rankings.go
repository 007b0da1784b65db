package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/trackrank/internal/adapters/repository"
	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ordering"
	"github.com/okian/trackrank/internal/domain/percentile"
	"github.com/okian/trackrank/internal/domain/projection"
	"github.com/okian/trackrank/internal/domain/ranking"
	"github.com/okian/trackrank/pkg/logger"
	"github.com/okian/trackrank/pkg/metrics"
)

// hypotheticalKey identifies the injected entry of a hypothetical ranking.
// Stored ids are positive so it never collides.
var hypotheticalKey = ranking.Key{CompetitorID: -1, MeetID: -1}

// Convert parses text for an event, or for category when event is empty, and
// returns its canonical display. An unknown event yields nil.
func (s *Service) Convert(ctx context.Context, event string, category model.Category, text string) (out *Conversion, err error) {
	defer func(start time.Time) { s.track(ctx, opConvert, start, out != nil, err) }(time.Now())

	if event != "" {
		category, err = s.store.EventCategory(ctx, event)
		if missing(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
	if category == "" {
		return nil, fmt.Errorf("convert: event or category required: %w", model.ErrInvalidScope)
	}

	v, err := codec.Parse(category, text)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Event:    event,
		Category: category,
		Input:    text,
		Value:    v,
		Display:  codec.Format(category, v),
	}, nil
}

// ResultRankings ranks a stored result against everyone in the same event,
// round, season, meet type and gender. For relay events the athlete's team
// result is ranked and there is no grade cohort. Unknown athletes, meets,
// events or results yield nil.
func (s *Service) ResultRankings(ctx context.Context, athleteID, meetID int64, event string, kind model.Kind) (out *ResultRankings, err error) {
	defer func(start time.Time) { s.track(ctx, opResultRankings, start, out != nil, err) }(time.Now())

	if kind == "" {
		kind = model.KindFinal
	}

	athlete, err := s.store.Athlete(ctx, athleteID)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	category, err := s.store.EventCategory(ctx, event)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meet, err := s.store.Meet(ctx, meetID)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	relay := category.IsRelay()
	source, competitor := model.SourceIndividual, athlete.ID
	if relay {
		source, competitor = model.SourceRelay, athlete.SchoolID
	}

	population, err := s.store.Results(ctx, repository.ResultFilter{
		Source:    source,
		Events:    []string{event},
		Years:     []int{meet.Year},
		MeetTypes: []model.MeetType{meet.Type},
		Genders:   []model.Gender{meet.Gender},
	})
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(population, func(r model.Result) bool {
		return r.CompetitorID == competitor && r.Meet.ID == meetID && r.Kind == kind
	})
	if idx < 0 || !rankable(population[idx]) {
		return nil, nil
	}
	target := population[idx]

	enrollments, err := s.store.Enrollments(ctx, meet.Year)
	if err != nil {
		return nil, err
	}

	var entries []ranking.Entry
	for _, r := range population {
		if r.Kind == kind && rankable(r) {
			entries = append(entries, toEntry(r, enrollments))
		}
	}

	lower := ordering.IsLowerBetter(category)
	cohorts, err := ranking.Cohorts(entries, ranking.Key{CompetitorID: competitor, MeetID: meetID}, lower, ranking.CohortOptions{
		Limit:     s.leaderboardLimit,
		Band:      s.band,
		Relay:     relay,
		SameGrade: !relay,
	})
	if err != nil {
		return nil, err
	}

	out = &ResultRankings{
		Context: RankingContext{
			Year:     meet.Year,
			Gender:   meet.Gender,
			Event:    event,
			MeetType: meet.Type,
			Kind:     kind,
			Category: category,
		},
		Target:   toTarget(target, enrollments),
		Relay:    relay,
		Rankings: cohorts,
	}

	scope := projection.Scope{Event: event, Category: category, Gender: meet.Gender, Year: meet.Year, MeetType: meet.Type}
	if target.Display != "" {
		out.WhereDoIRank, err = projection.ProjectText(target.Display, population, scope)
	}
	if target.Display == "" || err != nil {
		// Stored display strings are not always parseable; the numeric value is.
		out.WhereDoIRank = projection.Project(*target.Value, population, scope)
		err = nil
	}

	s.logger.Debug(ctx, "ranked result",
		logger.Int64("athlete_id", athleteID),
		logger.String("event", event),
		logger.Int("cohort_size", len(entries)),
	)
	return out, nil
}

// WhereDoIRank projects a mark against the stored results of one event for
// one gender. A zero year means the latest season.
func (s *Service) WhereDoIRank(ctx context.Context, req WhereDoIRankRequest) (out *projection.Projection, err error) {
	defer func(start time.Time) { s.track(ctx, opWhereDoIRank, start, out != nil, err) }(time.Now())

	category, err := s.store.EventCategory(ctx, req.Event)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if req.Gender == "" {
		return nil, fmt.Errorf("where do i rank: gender required: %w", model.ErrInvalidScope)
	}
	if req.MeetType == "" {
		req.MeetType = s.defaultMeetType
	}
	if req.Year == 0 {
		years, err := s.store.Years(ctx)
		if err != nil {
			return nil, err
		}
		if len(years) == 0 {
			return nil, nil
		}
		req.Year = years[0]
	}
	scope := projection.Scope{Event: req.Event, Category: category, Gender: req.Gender, Year: req.Year, MeetType: req.MeetType}

	// Parse before touching the store so malformed input fails fast.
	if _, err := codec.Parse(category, req.Value); err != nil {
		return nil, err
	}

	population, err := s.store.Results(ctx, scopeFilter(scope))
	if err != nil {
		return nil, err
	}
	return projection.ProjectText(req.Value, population, scope)
}

// HypotheticalRankings ranks a mark that was never recorded inside the
// overall, like-school and same-grade cohorts of a season. Asking for a
// grade cohort in a relay event is an invalid scope.
func (s *Service) HypotheticalRankings(ctx context.Context, req HypotheticalRequest) (out *HypotheticalRankings, err error) {
	defer func(start time.Time) { s.track(ctx, opHypothetical, start, out != nil, err) }(time.Now())

	category, err := s.store.EventCategory(ctx, req.Event)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	relay := category.IsRelay()
	if relay && req.Grade != "" {
		return nil, fmt.Errorf("grade cohort for relay event %s: %w", req.Event, model.ErrInvalidScope)
	}
	if req.Gender == "" {
		return nil, fmt.Errorf("hypothetical rank: gender required: %w", model.ErrInvalidScope)
	}
	if req.Kind == "" {
		req.Kind = model.KindFinal
	}
	if req.MeetType == "" {
		req.MeetType = s.defaultMeetType
	}
	if req.Year == 0 {
		years, err := s.store.Years(ctx)
		if err != nil {
			return nil, err
		}
		if len(years) == 0 {
			return nil, nil
		}
		req.Year = years[0]
	}

	value, err := codec.Parse(category, req.Value)
	if err != nil {
		return nil, err
	}

	scope := projection.Scope{Event: req.Event, Category: category, Gender: req.Gender, Year: req.Year, MeetType: req.MeetType}
	population, err := s.store.Results(ctx, scopeFilter(scope))
	if err != nil {
		return nil, err
	}
	enrollments, err := s.store.Enrollments(ctx, req.Year)
	if err != nil {
		return nil, err
	}

	entries := []ranking.Entry{{
		Key:     hypotheticalKey,
		Value:   value,
		Display: codec.Format(category, value),
		Name:    "Hypothetical",
		Grade:   req.Grade,
	}}
	if req.Enrollment > 0 {
		entries[0].Enrollment = &req.Enrollment
	}
	for _, r := range population {
		if r.Kind == req.Kind && rankable(r) {
			entries = append(entries, toEntry(r, enrollments))
		}
	}

	cohorts, err := ranking.Cohorts(entries, hypotheticalKey, ordering.IsLowerBetter(category), ranking.CohortOptions{
		Limit:     s.leaderboardLimit,
		Band:      s.band,
		Relay:     relay,
		SameGrade: req.Grade != "",
	})
	if err != nil {
		return nil, err
	}

	where := projection.Project(value, population, scope)
	where.Input = req.Value

	return &HypotheticalRankings{
		Context: RankingContext{
			Year:     req.Year,
			Gender:   req.Gender,
			Event:    req.Event,
			MeetType: req.MeetType,
			Kind:     req.Kind,
			Category: category,
		},
		Input:        req.Value,
		Value:        value,
		Display:      codec.Format(category, value),
		Rankings:     cohorts,
		WhereDoIRank: where,
	}, nil
}

// Percentiles computes the percentile table for req.
func (s *Service) Percentiles(ctx context.Context, req percentile.Request) (out *percentile.Table, err error) {
	defer func(start time.Time) { s.track(ctx, opPercentiles, start, true, err) }(time.Now())

	events, err := s.store.Events(ctx)
	if err != nil {
		return nil, err
	}

	names := req.Events
	if len(names) == 0 {
		names = percentile.DefaultEvents
	}
	wanted := make([]string, 0, len(names)+1)
	for _, name := range names {
		for _, g := range model.Genders {
			if e := percentile.EventFor(g, name); !slices.Contains(wanted, e) {
				wanted = append(wanted, e)
			}
		}
	}

	results, err := s.store.Results(ctx, repository.ResultFilter{
		Events:    wanted,
		Genders:   req.Genders,
		Years:     req.Years,
		MeetTypes: req.MeetTypes,
	})
	if err != nil {
		return nil, err
	}

	table, err := percentile.Compute(results, req, model.NewCatalog(events))
	if err != nil {
		return nil, err
	}
	metrics.RecordPercentileRows(len(table.Rows))
	return table, nil
}

// PercentileOptions lists the filter values available for percentile queries.
func (s *Service) PercentileOptions(ctx context.Context) (out percentile.Options, err error) {
	defer func(start time.Time) { s.track(ctx, opOptions, start, true, err) }(time.Now())

	years, err := s.store.Years(ctx)
	if err != nil {
		return percentile.Options{}, err
	}
	return percentile.AvailableOptions(years), nil
}

func scopeFilter(scope projection.Scope) repository.ResultFilter {
	f := repository.ResultFilter{Events: []string{scope.Event}}
	if scope.Category.IsRelay() {
		f.Source = model.SourceRelay
	} else {
		f.Source = model.SourceIndividual
	}
	if scope.Gender != "" {
		f.Genders = []model.Gender{scope.Gender}
	}
	if scope.Year != 0 {
		f.Years = []int{scope.Year}
	}
	if scope.MeetType != "" {
		f.MeetTypes = []model.MeetType{scope.MeetType}
	}
	return f
}

func rankable(r model.Result) bool {
	return r.Value != nil && !codec.IsNoMark(*r.Value)
}

// toEntry converts a result to a leaderboard entry. Relay teams are shown by
// their roster when one was recorded.
func toEntry(r model.Result, enrollments map[int64]int) ranking.Entry {
	e := ranking.Entry{
		Key:      ranking.Key{CompetitorID: r.CompetitorID, MeetID: r.Meet.ID},
		Value:    *r.Value,
		Display:  r.Display,
		Name:     r.Name,
		School:   r.SchoolName,
		SchoolID: r.SchoolID,
		Grade:    r.Grade,
		MeetHost: r.Meet.Host,
		Place:    r.Place,
	}
	if r.Source == model.SourceRelay && r.AthleteNames != "" {
		e.Name = r.AthleteNames
	}
	if n, ok := enrollments[r.SchoolID]; ok {
		e.Enrollment = &n
	}
	return e
}

func toTarget(r model.Result, enrollments map[int64]int) TargetResult {
	t := TargetResult{
		CompetitorID: r.CompetitorID,
		Name:         r.Name,
		Result:       r.Display,
		Value:        *r.Value,
		Grade:        r.Grade,
		SchoolID:     r.SchoolID,
		SchoolName:   r.SchoolName,
		Place:        r.Place,
		MeetID:       r.Meet.ID,
		MeetHost:     r.Meet.Host,
		MeetNum:      r.Meet.MeetNum,
		Year:         r.Meet.Year,
	}
	if r.Source == model.SourceRelay {
		t.Athletes = repository.RosterNames(r.AthleteNames)
	}
	if n, ok := enrollments[r.SchoolID]; ok {
		t.Enrollment = &n
	}
	return t
}
