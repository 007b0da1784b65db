package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/pkg/metrics"
)

const backendMemory = "memory"

// snapshot is an immutable, fully joined copy of a Dataset.
type snapshot struct {
	events      []model.Event
	catalog     model.Catalog
	schools     map[int64]model.School
	athletes    map[int64]model.Athlete
	meets       map[int64]model.Meet
	meetList    []model.Meet
	enrollments map[int]map[int64]int
	results     []model.Result
	years       []int
}

// MemoryStore serves the corpus from an in-memory snapshot. Readers never
// block; Replace swaps the whole snapshot atomically.
type MemoryStore struct {
	snapshot atomic.Pointer[snapshot]
	opts     options

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMemoryStore builds a store over ds.
func NewMemoryStore(ctx context.Context, ds *Dataset, opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{opts: buildOptions(opts), stopChan: make(chan struct{})}
	if err := s.Replace(ds); err != nil {
		return nil, err
	}
	s.startMetricsUpdater(ctx)
	return s, nil
}

// OpenMemory loads a fixture file into a MemoryStore.
func OpenMemory(ctx context.Context, path string, opts ...Option) (*MemoryStore, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(ctx, ds, opts...)
}

// Replace rebuilds the snapshot from ds and publishes it.
func (s *MemoryStore) Replace(ds *Dataset) error {
	start := time.Now()
	snap, err := buildSnapshot(ds)
	if err != nil {
		return err
	}
	s.snapshot.Store(snap)

	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordSnapshotRebuildDuration(ms)
	metrics.UpdateSnapshotLastUnix(float64(time.Now().Unix()))
	metrics.IncrementSnapshotCount()
	s.updateMetrics()
	return nil
}

func buildSnapshot(ds *Dataset) (*snapshot, error) {
	if ds == nil {
		ds = &Dataset{}
	}
	snap := &snapshot{
		events:      slices.Clone(ds.Events),
		catalog:     model.NewCatalog(ds.Events),
		schools:     make(map[int64]model.School, len(ds.Schools)),
		athletes:    make(map[int64]model.Athlete, len(ds.Athletes)),
		meets:       make(map[int64]model.Meet, len(ds.Meets)),
		enrollments: make(map[int]map[int64]int),
	}
	for _, r := range ds.Schools {
		snap.schools[r.ID] = r.school()
	}
	for _, r := range ds.Enrollments {
		byYear, ok := snap.enrollments[r.Year]
		if !ok {
			byYear = make(map[int64]int)
			snap.enrollments[r.Year] = byYear
		}
		byYear[r.SchoolID] = r.Enrollment
	}
	for _, r := range ds.Athletes {
		if _, ok := snap.schools[r.SchoolID]; !ok {
			return nil, fmt.Errorf("%w: athlete %d references unknown school %d", ErrInvalidDataset, r.ID, r.SchoolID)
		}
		snap.athletes[r.ID] = r.athlete()
	}
	years := make(map[int]struct{})
	for _, r := range ds.Meets {
		m := r.meet()
		snap.meets[m.ID] = m
		snap.meetList = append(snap.meetList, m)
		years[m.Year] = struct{}{}
	}
	slices.SortFunc(snap.meetList, func(a, b model.Meet) int { return cmp.Compare(a.ID, b.ID) })
	for y := range years {
		snap.years = append(snap.years, y)
	}
	slices.SortFunc(snap.years, func(a, b int) int { return cmp.Compare(b, a) })

	snap.results = make([]model.Result, 0, len(ds.Results)+len(ds.RelayResults))
	for _, r := range ds.Results {
		m, ok := snap.meets[r.MeetID]
		if !ok {
			return nil, fmt.Errorf("%w: result references unknown meet %d", ErrInvalidDataset, r.MeetID)
		}
		a, ok := snap.athletes[r.AthleteID]
		if !ok {
			return nil, fmt.Errorf("%w: result references unknown athlete %d", ErrInvalidDataset, r.AthleteID)
		}
		snap.results = append(snap.results, r.result(m, a, snap.schools[a.SchoolID]))
	}
	for _, r := range ds.RelayResults {
		m, ok := snap.meets[r.MeetID]
		if !ok {
			return nil, fmt.Errorf("%w: relay references unknown meet %d", ErrInvalidDataset, r.MeetID)
		}
		sc, ok := snap.schools[r.SchoolID]
		if !ok {
			return nil, fmt.Errorf("%w: relay references unknown school %d", ErrInvalidDataset, r.SchoolID)
		}
		snap.results = append(snap.results, r.result(m, sc))
	}
	return snap, nil
}

func (s *MemoryStore) load() (*snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrClosed
	}
	return snap, nil
}

func observe(query string, start time.Time, rows int) {
	metrics.RecordStoreQueryLatency(backendMemory, query, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordStoreRowsLoaded(backendMemory, query, rows)
}

// Events implements Store.
func (s *MemoryStore) Events(_ context.Context) ([]model.Event, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.events), nil
}

// EventCategory implements Store.
func (s *MemoryStore) EventCategory(_ context.Context, name string) (model.Category, error) {
	snap, err := s.load()
	if err != nil {
		return "", err
	}
	cat, ok := snap.catalog.Lookup(name)
	if !ok {
		return "", fmt.Errorf("event %q: %w", name, ErrNotFound)
	}
	return cat, nil
}

// Meet implements Store.
func (s *MemoryStore) Meet(_ context.Context, id int64) (model.Meet, error) {
	snap, err := s.load()
	if err != nil {
		return model.Meet{}, err
	}
	m, ok := snap.meets[id]
	if !ok {
		return model.Meet{}, fmt.Errorf("meet %d: %w", id, ErrNotFound)
	}
	return m, nil
}

// Meets implements Store.
func (s *MemoryStore) Meets(_ context.Context, filter MeetFilter) ([]model.Meet, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []model.Meet
	for _, m := range snap.meetList {
		if filter.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Athlete implements Store.
func (s *MemoryStore) Athlete(_ context.Context, id int64) (model.Athlete, error) {
	snap, err := s.load()
	if err != nil {
		return model.Athlete{}, err
	}
	a, ok := snap.athletes[id]
	if !ok {
		return model.Athlete{}, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// School implements Store.
func (s *MemoryStore) School(_ context.Context, id int64) (model.School, error) {
	snap, err := s.load()
	if err != nil {
		return model.School{}, err
	}
	sc, ok := snap.schools[id]
	if !ok {
		return model.School{}, fmt.Errorf("school %d: %w", id, ErrNotFound)
	}
	return sc, nil
}

// Enrollment implements Store.
func (s *MemoryStore) Enrollment(_ context.Context, schoolID int64, year int) (int, bool, error) {
	snap, err := s.load()
	if err != nil {
		return 0, false, err
	}
	n, ok := snap.enrollments[year][schoolID]
	return n, ok, nil
}

// Enrollments implements Store.
func (s *MemoryStore) Enrollments(_ context.Context, year int) (map[int64]int, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(snap.enrollments[year]))
	for id, n := range snap.enrollments[year] {
		out[id] = n
	}
	return out, nil
}

// Results implements Store.
func (s *MemoryStore) Results(ctx context.Context, filter ResultFilter) ([]model.Result, error) {
	start := time.Now()
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []model.Result
	for _, r := range snap.results {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	observe("results", start, len(out))
	return out, ctx.Err()
}

// RelayResultsForAthlete implements Store.
func (s *MemoryStore) RelayResultsForAthlete(ctx context.Context, athleteID int64, filter ResultFilter) ([]model.Result, error) {
	start := time.Now()
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	a, ok := snap.athletes[athleteID]
	if !ok {
		return nil, fmt.Errorf("athlete %d: %w", athleteID, ErrNotFound)
	}
	filter.Source = model.SourceRelay
	filter.SchoolIDs = []int64{a.SchoolID}
	if a.Gender != "" {
		filter.Genders = []model.Gender{a.Gender}
	}
	var out []model.Result
	for _, r := range snap.results {
		if filter.Match(r) && OnRoster(a, r.AthleteNames) {
			out = append(out, r)
		}
	}
	observe("relay_results_for_athlete", start, len(out))
	return out, ctx.Err()
}

// Years implements Store.
func (s *MemoryStore) Years(_ context.Context) ([]int, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.years), nil
}

// Close stops the metrics updater and releases the snapshot.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.snapshot.Store(nil)
	return nil
}

// startMetricsUpdater periodically republishes record counts.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	if s.opts.metricsUpdateInterval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	snap := s.snapshot.Load()
	if snap == nil {
		return
	}
	var individual, relay int
	for _, r := range snap.results {
		if r.Source == model.SourceRelay {
			relay++
		} else {
			individual++
		}
	}
	metrics.UpdateStoreRecords("school", len(snap.schools))
	metrics.UpdateStoreRecords("athlete", len(snap.athletes))
	metrics.UpdateStoreRecords("meet", len(snap.meets))
	metrics.UpdateStoreRecords("athlete_result", individual)
	metrics.UpdateStoreRecords("relay_result", relay)
}
