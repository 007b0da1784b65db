package service

import (
	"github.com/okian/trackrank/internal/domain/badges"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/projection"
	"github.com/okian/trackrank/internal/domain/ranking"
)

// Conversion is a parsed performance value and its canonical display.
type Conversion struct {
	Event    string         `json:"event,omitempty"`
	Category model.Category `json:"event_type"`
	Input    string         `json:"input"`
	Value    float64        `json:"value"`
	Display  string         `json:"display"`
}

// RankingContext describes the population a result was ranked in.
type RankingContext struct {
	Year     int            `json:"year"`
	Gender   model.Gender   `json:"gender"`
	Event    string         `json:"event"`
	MeetType model.MeetType `json:"meet_type"`
	Kind     model.Kind     `json:"result_type"`
	Category model.Category `json:"event_type"`
}

// TargetResult is the result being ranked. For relays the competitor is the
// athlete's school.
type TargetResult struct {
	CompetitorID int64    `json:"competitor_id"`
	Name         string   `json:"name"`
	Result       string   `json:"result"`
	Value        float64  `json:"result_value"`
	Grade        string   `json:"grade,omitempty"`
	SchoolID     int64    `json:"school_id"`
	SchoolName   string   `json:"school_name,omitempty"`
	Enrollment   *int     `json:"enrollment,omitempty"`
	Place        *int     `json:"place,omitempty"`
	MeetID       int64    `json:"meet_id"`
	MeetHost     string   `json:"meet_host,omitempty"`
	MeetNum      int      `json:"meet_num,omitempty"`
	Year         int      `json:"year"`
	Athletes     []string `json:"athletes,omitempty"`
}

// ResultRankings places one stored result within its cohorts.
type ResultRankings struct {
	Context      RankingContext         `json:"context"`
	Target       TargetResult           `json:"target_result"`
	Relay        bool                   `json:"relay"`
	Rankings     ranking.CohortRankings `json:"rankings"`
	WhereDoIRank *projection.Projection `json:"where_do_i_rank,omitempty"`
}

// WhereDoIRankRequest asks where a mark would have placed.
type WhereDoIRankRequest struct {
	Event    string
	Value    string
	Gender   model.Gender
	Year     int
	MeetType model.MeetType
}

// HypotheticalRequest ranks a mark that was never recorded. Enrollment and
// Grade are optional and enable the like-school and same-grade cohorts.
type HypotheticalRequest struct {
	Event      string
	Value      string
	Gender     model.Gender
	Year       int
	MeetType   model.MeetType
	Kind       model.Kind
	Enrollment int
	Grade      string
}

// HypotheticalRankings is the cohort standing of a hypothetical mark.
type HypotheticalRankings struct {
	Context      RankingContext         `json:"context"`
	Input        string                 `json:"input"`
	Value        float64                `json:"value"`
	Display      string                 `json:"display"`
	Rankings     ranking.CohortRankings `json:"rankings"`
	WhereDoIRank *projection.Projection `json:"where_do_i_rank"`
}

// AthleteHeader identifies the athlete a dashboard belongs to.
type AthleteHeader struct {
	ID             int64        `json:"id"`
	First          string       `json:"first"`
	Last           string       `json:"last"`
	FullName       string       `json:"full_name"`
	SchoolID       int64        `json:"school_id"`
	School         string       `json:"school,omitempty"`
	Gender         model.Gender `json:"gender"`
	GraduationYear int          `json:"graduation_year,omitempty"`
}

// Dashboard aggregates an athlete's postseason record.
type Dashboard struct {
	Athlete             AthleteHeader           `json:"athlete"`
	Badges              []badges.Badge          `json:"badges"`
	SectionalPercentile *badges.PercentileBadge `json:"sectional_percentile,omitempty"`
	PlayoffHistory      []badges.HistoryRow     `json:"playoff_history"`
	PersonalBests       []badges.PersonalBest   `json:"personal_bests"`
}

// BatchItem is one athlete's entry in a batch dashboard response.
type BatchItem struct {
	AthleteID int64      `json:"athlete_id"`
	Dashboard *Dashboard `json:"dashboard,omitempty"`
	Error     string     `json:"error,omitempty"`
}
