package repository

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
)

// Dataset is the flat, table-shaped form of the corpus used to seed stores.
// Rows mirror the database tables one to one.
type Dataset struct {
	Events       []model.Event   `koanf:"events"`
	Schools      []SchoolRow     `koanf:"schools"`
	Enrollments  []EnrollmentRow `koanf:"enrollments"`
	Athletes     []AthleteRow    `koanf:"athletes"`
	Meets        []MeetRow       `koanf:"meets"`
	Results      []ResultRow     `koanf:"results"`
	RelayResults []RelayRow      `koanf:"relay_results"`
}

// SchoolRow is a school table row.
type SchoolRow struct {
	ID       int64  `koanf:"school_id"`
	Name     string `koanf:"school_name"`
	TeamName string `koanf:"team_name"`
}

// EnrollmentRow is a school_enrollment table row.
type EnrollmentRow struct {
	SchoolID   int64 `koanf:"school_id"`
	Year       int   `koanf:"year"`
	Enrollment int   `koanf:"enrollment"`
}

// AthleteRow is an athlete table row.
type AthleteRow struct {
	ID       int64  `koanf:"athlete_id"`
	SchoolID int64  `koanf:"school_id"`
	First    string `koanf:"first"`
	Last     string `koanf:"last"`
	Gender   string `koanf:"gender"`
	GradYear int    `koanf:"grad_year"`
}

// MeetRow is a meet table row.
type MeetRow struct {
	ID       int64  `koanf:"meet_id"`
	Host     string `koanf:"host"`
	MeetType string `koanf:"meet_type"`
	MeetNum  int    `koanf:"meet_num"`
	Year     int    `koanf:"year"`
	Gender   string `koanf:"gender"`
}

// ResultRow is an athlete_result table row. A nil Value has no comparable
// mark.
type ResultRow struct {
	AthleteID  int64    `koanf:"athlete_id"`
	MeetID     int64    `koanf:"meet_id"`
	Event      string   `koanf:"event"`
	ResultType string   `koanf:"result_type"`
	Grade      string   `koanf:"grade"`
	Result     string   `koanf:"result"`
	Value      *float64 `koanf:"result2"`
	Place      *int     `koanf:"place"`
}

// RelayRow is a relay_result table row.
type RelayRow struct {
	SchoolID     int64    `koanf:"school_id"`
	MeetID       int64    `koanf:"meet_id"`
	Event        string   `koanf:"event"`
	ResultType   string   `koanf:"result_type"`
	Result       string   `koanf:"result"`
	Value        *float64 `koanf:"result2"`
	Place        *int     `koanf:"place"`
	AthleteNames string   `koanf:"athlete_names"`
}

// LoadDataset reads a YAML (or JSON) fixture from path.
func LoadDataset(path string) (*Dataset, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	var ds Dataset
	if err := k.UnmarshalWithConf("", &ds, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	ds.deriveValues(k)
	return &ds, nil
}

// deriveValues parses result2 from the display text for fixture rows that
// leave the key out. An explicit null stays null.
func (ds *Dataset) deriveValues(k *koanf.Koanf) {
	catalog := model.NewCatalog(ds.Events)
	omitted := omittedValues(k.Get("results"))
	for i := range ds.Results {
		if r := &ds.Results[i]; omitted[i] {
			r.Value = parseValue(catalog.Category(r.Event), r.Result)
		}
	}
	omitted = omittedValues(k.Get("relay_results"))
	for i := range ds.RelayResults {
		if r := &ds.RelayResults[i]; omitted[i] {
			r.Value = parseValue(catalog.Category(r.Event), r.Result)
		}
	}
}

// omittedValues returns the indexes of raw rows without a result2 key.
func omittedValues(raw any) map[int]bool {
	rows, _ := raw.([]any)
	out := make(map[int]bool, len(rows))
	for i, row := range rows {
		var has bool
		switch m := row.(type) {
		case map[string]any:
			_, has = m["result2"]
		case map[any]any:
			_, has = m["result2"]
		default:
			continue
		}
		if !has {
			out[i] = true
		}
	}
	return out
}

func (r AthleteRow) athlete() model.Athlete {
	g, _ := model.ParseGender(r.Gender)
	return model.Athlete{ID: r.ID, SchoolID: r.SchoolID, First: r.First, Last: r.Last, Gender: g, GraduationYear: r.GradYear}
}

func (r MeetRow) meet() model.Meet {
	g, _ := model.ParseGender(r.Gender)
	return model.Meet{ID: r.ID, Year: r.Year, Gender: g, Type: model.MeetType(r.MeetType), Host: r.Host, MeetNum: r.MeetNum}
}

func (r SchoolRow) school() model.School {
	return model.School{ID: r.ID, Name: r.Name, TeamName: r.TeamName}
}

func (r ResultRow) result(m model.Meet, a model.Athlete, s model.School) model.Result {
	return model.Result{
		Source:       model.SourceIndividual,
		CompetitorID: a.ID,
		Name:         a.FullName(),
		SchoolID:     a.SchoolID,
		SchoolName:   s.Name,
		Meet:         m,
		Event:        r.Event,
		Kind:         kind(r.ResultType),
		Display:      codec.Normalize(r.Result),
		Value:        r.Value,
		Place:        r.Place,
		Grade:        r.Grade,
	}
}

func (r RelayRow) result(m model.Meet, s model.School) model.Result {
	return model.Result{
		Source:       model.SourceRelay,
		CompetitorID: s.ID,
		Name:         teamName(s),
		SchoolID:     s.ID,
		SchoolName:   s.Name,
		Meet:         m,
		Event:        r.Event,
		Kind:         kind(r.ResultType),
		Display:      codec.Normalize(r.Result),
		Value:        r.Value,
		Place:        r.Place,
		AthleteNames: r.AthleteNames,
	}
}

func teamName(s model.School) string {
	if s.TeamName != "" {
		return s.TeamName
	}
	return s.Name
}

// kind maps stored result types; relays and older rows may leave it empty.
func kind(s string) model.Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prelim", "prelims", "p":
		return model.KindPrelim
	case "", "final", "finals", "f":
		return model.KindFinal
	}
	return model.Kind(s)
}

// parseValue reads a numeric mark from display text. Unparseable text such
// as "DNF" leaves the value empty.
func parseValue(cat model.Category, display string) *float64 {
	if strings.TrimSpace(display) == "" {
		return nil
	}
	v, err := codec.Parse(cat, display)
	if err != nil {
		return nil
	}
	return &v
}
