package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/trackrank/internal/adapters/mq/queue"
	"github.com/okian/trackrank/internal/adapters/repository"
	"github.com/okian/trackrank/internal/domain/badges"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/pkg/logger"
	"github.com/okian/trackrank/pkg/metrics"
)

// Dashboard aggregates an athlete's badges, playoff history and personal
// bests, including relay legs found by roster name. Unknown athletes yield
// nil.
func (s *Service) Dashboard(ctx context.Context, athleteID int64) (out *Dashboard, err error) {
	defer func(start time.Time) { s.track(ctx, opDashboard, start, out != nil, err) }(time.Now())
	return s.dashboard(ctx, athleteID)
}

func (s *Service) dashboard(ctx context.Context, athleteID int64) (*Dashboard, error) {
	athlete, err := s.store.Athlete(ctx, athleteID)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	school, err := s.store.School(ctx, athlete.SchoolID)
	if err != nil && !missing(err) {
		return nil, err
	}
	events, err := s.store.Events(ctx)
	if err != nil {
		return nil, err
	}
	catalog := model.NewCatalog(events)

	own, err := s.store.Results(ctx, repository.ResultFilter{
		Source:        model.SourceIndividual,
		CompetitorIDs: []int64{athleteID},
	})
	if err != nil {
		return nil, fmt.Errorf("results for athlete %d: %w", athleteID, err)
	}
	legs, err := s.store.RelayResultsForAthlete(ctx, athleteID, repository.ResultFilter{})
	if err != nil {
		return nil, fmt.Errorf("relay legs for athlete %d: %w", athleteID, err)
	}
	all := make([]model.Result, 0, len(own)+len(legs))
	all = append(all, own...)
	all = append(all, legs...)

	// Field sizes are cached for this request only.
	sizes := badges.NewFieldSizes(func(key badges.FieldSizeKey) (int, bool, error) {
		field, err := s.store.Results(ctx, repository.ResultFilter{
			Events:  []string{key.Event},
			MeetIDs: []int64{key.MeetID},
			Kinds:   []model.Kind{key.Kind},
		})
		if err != nil {
			return 0, false, err
		}
		n, ok := badges.MaxPlace(field, key)
		return n, ok, nil
	})
	pct, err := badges.SectionalPercentile(all, sizes)
	if err != nil {
		return nil, err
	}

	population, err := s.store.Results(ctx, repository.ResultFilter{
		Source:  model.SourceIndividual,
		Genders: []model.Gender{athlete.Gender},
		MinYear: s.bestsSince,
	})
	if err != nil {
		return nil, fmt.Errorf("personal best population: %w", err)
	}
	bests := badges.PersonalBests(badges.BestsInput{
		Athlete:    athlete,
		Population: population,
		Catalog:    catalog,
		SinceYear:  s.bestsSince,
	})
	bests = append(bests, badges.RelayBests(legs, catalog, s.bestsSince)...)
	slices.SortStableFunc(bests, func(a, b badges.PersonalBest) int { return cmp.Compare(a.Event, b.Event) })

	metrics.RecordDashboardBuilt()
	return &Dashboard{
		Athlete: AthleteHeader{
			ID:             athlete.ID,
			First:          athlete.First,
			Last:           athlete.Last,
			FullName:       athlete.FullName(),
			SchoolID:       athlete.SchoolID,
			School:         school.Name,
			Gender:         athlete.Gender,
			GraduationYear: athlete.GraduationYear,
		},
		Badges:              badges.Compute(all, s.thresholds),
		SectionalPercentile: pct,
		PlayoffHistory:      badges.History(all),
		PersonalBests:       bests,
	}, nil
}

// handleDashboard is the worker pool's job handler.
func (s *Service) handleDashboard(ctx context.Context, athleteID int64) (any, error) {
	return s.dashboard(ctx, athleteID)
}

// Dashboards builds dashboards for several athletes on the worker pool.
// Items keep the order of ids; duplicates are built once. Unknown athletes
// and failed jobs are reported per item.
func (s *Service) Dashboards(ctx context.Context, ids []int64) (out []BatchItem, err error) {
	defer func(start time.Time) { s.track(ctx, opDashboards, start, true, err) }(time.Now())

	s.mu.RLock()
	started, q, limit := s.started, s.queue, s.maxBatchSize
	s.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) > limit {
		return nil, fmt.Errorf("%d athletes exceeds batch limit %d: %w", len(unique), limit, model.ErrInvalidScope)
	}

	results := make(map[int64]BatchItem, len(unique))
	reply := make(chan queue.Outcome, len(unique))
	pending := 0
	for _, id := range unique {
		if !q.Enqueue(ctx, queue.NewJob(id, reply)) {
			results[id] = BatchItem{AthleteID: id, Error: ErrQueueFull.Error()}
			continue
		}
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case o := <-reply:
			item := BatchItem{AthleteID: o.AthleteID}
			switch d, _ := o.Value.(*Dashboard); {
			case o.Err != nil:
				item.Error = o.Err.Error()
			case d == nil:
				item.Error = repository.ErrNotFound.Error()
			default:
				item.Dashboard = d
			}
			results[o.AthleteID] = item
		}
	}

	out = make([]BatchItem, 0, len(unique))
	for _, id := range unique {
		out = append(out, results[id])
	}
	s.logger.Debug(ctx, "built dashboards", logger.Int("athletes", len(out)))
	return out, nil
}
