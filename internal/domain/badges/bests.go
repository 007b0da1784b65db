package badges

import (
	"cmp"
	"slices"

	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ordering"
	"github.com/okian/trackrank/internal/domain/ranking"
)

// DefaultSinceYear is the first season counted for personal bests.
const DefaultSinceYear = 2022

// Standing is a rank within a population.
type Standing struct {
	Rank  int `json:"rank"`
	Total int `json:"total"`
}

// PersonalBest is an athlete's best mark in one individual event.
type PersonalBest struct {
	Event      string         `json:"event"`
	Result     string         `json:"result"`
	Value      float64        `json:"result_value"`
	Year       int            `json:"year"`
	MeetID     int64          `json:"meet_id"`
	MeetType   model.MeetType `json:"meet_type"`
	SchoolRank *Standing      `json:"school_rank,omitempty"`
	StateRank  *Standing      `json:"state_rank,omitempty"`
}

// BestsInput carries everything PersonalBests needs.
type BestsInput struct {
	Athlete model.Athlete
	// Population holds individual results for the athlete's gender; it
	// should include the athlete's own results.
	Population []model.Result
	Catalog    model.Catalog
	SinceYear  int
}

type best struct {
	result model.Result
	value  float64
}

// PersonalBests returns the athlete's best mark per individual event since
// the cutoff year, ranked within their school and statewide.
func PersonalBests(in BestsInput) []PersonalBest {
	since := in.SinceYear
	if since == 0 {
		since = DefaultSinceYear
	}

	// event -> athlete -> best
	bests := make(map[string]map[int64]best)
	for _, r := range in.Population {
		if r.Source != model.SourceIndividual || r.Meet.Year < since || r.Value == nil || codec.IsNoMark(*r.Value) {
			continue
		}
		if in.Athlete.Gender != "" && r.Meet.Gender != in.Athlete.Gender {
			continue
		}
		cat := in.Catalog.Category(r.Event)
		if cat.IsRelay() {
			continue
		}
		lower := ordering.IsLowerBetter(cat)
		byAthlete, ok := bests[r.Event]
		if !ok {
			byAthlete = make(map[int64]best)
			bests[r.Event] = byAthlete
		}
		cur, ok := byAthlete[r.CompetitorID]
		if !ok || ordering.Better(lower, *r.Value, cur.value) {
			byAthlete[r.CompetitorID] = best{result: r, value: *r.Value}
		}
	}

	var out []PersonalBest
	for event, byAthlete := range bests {
		mine, ok := byAthlete[in.Athlete.ID]
		if !ok {
			continue
		}
		cat := in.Catalog.Category(event)
		lower := ordering.IsLowerBetter(cat)

		entries := make([]ranking.Entry, 0, len(byAthlete))
		for id, b := range byAthlete {
			entries = append(entries, ranking.Entry{
				Key:      ranking.Key{CompetitorID: id, MeetID: b.result.Meet.ID},
				Value:    b.value,
				SchoolID: b.result.SchoolID,
			})
		}
		target := ranking.Key{CompetitorID: in.Athlete.ID, MeetID: mine.result.Meet.ID}

		pb := PersonalBest{
			Event:    event,
			Result:   display(mine.result, cat),
			Value:    mine.value,
			Year:     mine.result.Meet.Year,
			MeetID:   mine.result.Meet.ID,
			MeetType: mine.result.Meet.Type,
		}
		pb.StateRank = standing(ranking.RankWithin(entries, target, lower, ranking.WithLimit(0)))
		school := in.Athlete.SchoolID
		pb.SchoolRank = standing(ranking.RankWithin(entries, target, lower, ranking.WithLimit(0),
			ranking.WithFilter(func(e ranking.Entry) bool { return e.SchoolID == school })))
		out = append(out, pb)
	}

	slices.SortFunc(out, func(a, b PersonalBest) int { return cmp.Compare(a.Event, b.Event) })
	return out
}

func standing(info *ranking.RankInfo) *Standing {
	if info == nil {
		return nil
	}
	return &Standing{Rank: info.Rank, Total: info.Total}
}

func display(r model.Result, cat model.Category) string {
	if r.Display != "" {
		return r.Display
	}
	return codec.Format(cat, *r.Value)
}

// RelayBests returns the best team mark per relay event the athlete ran a
// leg in since the cutoff year. Relay bests carry no school or state rank.
func RelayBests(legs []model.Result, catalog model.Catalog, sinceYear int) []PersonalBest {
	if sinceYear == 0 {
		sinceYear = DefaultSinceYear
	}
	bests := make(map[string]best)
	for _, r := range legs {
		if r.Source != model.SourceRelay || r.Meet.Year < sinceYear || r.Value == nil || codec.IsNoMark(*r.Value) {
			continue
		}
		lower := ordering.IsLowerBetter(catalog.Category(r.Event))
		cur, ok := bests[r.Event]
		if !ok || ordering.Better(lower, *r.Value, cur.value) {
			bests[r.Event] = best{result: r, value: *r.Value}
		}
	}

	out := make([]PersonalBest, 0, len(bests))
	for event, b := range bests {
		out = append(out, PersonalBest{
			Event:    event,
			Result:   display(b.result, catalog.Category(event)),
			Value:    b.value,
			Year:     b.result.Meet.Year,
			MeetID:   b.result.Meet.ID,
			MeetType: b.result.Meet.Type,
		})
	}
	slices.SortFunc(out, func(a, b PersonalBest) int { return cmp.Compare(a.Event, b.Event) })
	return out
}
