package badges

import (
	"fmt"
	"sync"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/selector"
	"github.com/okian/trackrank/internal/domain/types"
)

// FieldSizeKey identifies a heat population.
type FieldSizeKey struct {
	MeetID int64
	Event  string
	Kind   model.Kind
}

// FieldSizeLoader returns the largest recorded place for key, or false when
// nobody was placed.
type FieldSizeLoader func(key FieldSizeKey) (int, bool, error)

// FieldSizes memoizes field sizes for the lifetime of one request. Callers
// invalidate keys whose results change.
type FieldSizes struct {
	mu    sync.Mutex
	load  FieldSizeLoader
	cache map[FieldSizeKey]fieldSize
}

type fieldSize struct {
	n  int
	ok bool
}

// NewFieldSizes wraps load with a request-scoped cache.
func NewFieldSizes(load FieldSizeLoader) *FieldSizes {
	return &FieldSizes{load: load, cache: make(map[FieldSizeKey]fieldSize)}
}

// FieldSizesFrom builds a cache over an in-memory population.
func FieldSizesFrom(population []model.Result) *FieldSizes {
	return NewFieldSizes(func(key FieldSizeKey) (int, bool, error) {
		n, ok := MaxPlace(population, key)
		return n, ok, nil
	})
}

// Get returns the field size for key.
func (f *FieldSizes) Get(key FieldSizeKey) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, hit := f.cache[key]; hit {
		return v.n, v.ok, nil
	}
	n, ok, err := f.load(key)
	if err != nil {
		return 0, false, err
	}
	f.cache[key] = fieldSize{n: n, ok: ok}
	return n, ok, nil
}

// Invalidate drops a cached key.
func (f *FieldSizes) Invalidate(key FieldSizeKey) {
	f.mu.Lock()
	delete(f.cache, key)
	f.mu.Unlock()
}

// Reset drops every cached key.
func (f *FieldSizes) Reset() {
	f.mu.Lock()
	clear(f.cache)
	f.mu.Unlock()
}

// Len returns the number of cached keys.
func (f *FieldSizes) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

// MaxPlace returns the largest positive place among results matching key.
func MaxPlace(results []model.Result, key FieldSizeKey) (int, bool) {
	best := 0
	for _, r := range results {
		if r.Meet.ID != key.MeetID || r.Event != key.Event || r.Kind != key.Kind || !r.HasPlace() {
			continue
		}
		best = max(best, *r.Place)
	}
	return best, best > 0
}

// PercentileBadge is the best place-to-field ratio achieved at a stage.
type PercentileBadge struct {
	Stage      model.MeetType `json:"stage"`
	Percentile float64        `json:"percentile"`
	Label      string         `json:"label"`
	Event      string         `json:"event"`
	Year       int            `json:"year"`
	MeetID     int64          `json:"meet_id"`
	Place      int            `json:"place"`
	FieldSize  int            `json:"field_size"`
}

// SectionalPercentile returns the athlete's best place/field_size*100 over
// Sectional results, or nil when no placed result has a known field size.
func SectionalPercentile(results []model.Result, sizes *FieldSizes) (*PercentileBadge, error) {
	var best *PercentileBadge
	for _, r := range selector.Canonicalize(results) {
		if r.Meet.Type != model.MeetSectional || !r.HasPlace() {
			continue
		}
		key := FieldSizeKey{MeetID: r.Meet.ID, Event: r.Event, Kind: r.Kind}
		n, ok, err := sizes.Get(key)
		if err != nil {
			return nil, fmt.Errorf("field size for meet %d %s: %w", key.MeetID, key.Event, err)
		}
		if !ok {
			continue
		}
		pct := float64(*r.Place) / float64(n) * 100
		if best != nil && pct >= best.Percentile {
			continue
		}
		best = &PercentileBadge{
			Stage:      model.MeetSectional,
			Percentile: pct,
			Event:      r.Event,
			Year:       r.Meet.Year,
			MeetID:     r.Meet.ID,
			Place:      *r.Place,
			FieldSize:  n,
		}
	}
	if best != nil {
		best.Label = fmt.Sprintf("Top %s%% Sectional", types.Percent(best.Percentile))
	}
	return best, nil
}
