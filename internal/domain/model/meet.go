package model

import "strings"

// Gender of a meet or athlete.
type Gender string

const (
	GenderBoys  Gender = "Boys"
	GenderGirls Gender = "Girls"
)

// Genders lists genders in display order.
var Genders = []Gender{GenderBoys, GenderGirls}

// ParseGender accepts case-insensitive gender names.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boys", "boy", "m", "male":
		return GenderBoys, true
	case "girls", "girl", "f", "female":
		return GenderGirls, true
	}
	return "", false
}

// MeetType is the competition tier of a meet.
type MeetType string

const (
	MeetSectional MeetType = "Sectional"
	MeetRegional  MeetType = "Regional"
	MeetState     MeetType = "State"
)

// Stages are the postseason tiers in progression order.
var Stages = []MeetType{MeetSectional, MeetRegional, MeetState}

// IsStage reports whether t is one of the postseason tiers.
func (t MeetType) IsStage() bool {
	for _, s := range Stages {
		if s == t {
			return true
		}
	}
	return false
}

// Meet is a single competition. MeetNum distinguishes same-type meets held
// in one year, e.g. several Sectional sites.
type Meet struct {
	ID      int64    `json:"meet_id"`
	Year    int      `json:"year"`
	Gender  Gender   `json:"gender"`
	Type    MeetType `json:"meet_type"`
	Host    string   `json:"host,omitempty"`
	MeetNum int      `json:"meet_num,omitempty"`
}

// School fields athletes and relay teams.
type School struct {
	ID       int64  `json:"school_id"`
	Name     string `json:"school_name"`
	TeamName string `json:"team_name,omitempty"`
}

// Athlete belongs to exactly one school.
type Athlete struct {
	ID             int64  `json:"athlete_id"`
	SchoolID       int64  `json:"school_id"`
	First          string `json:"first"`
	Last           string `json:"last"`
	Gender         Gender `json:"gender"`
	GraduationYear int    `json:"graduation_year,omitempty"`
}

// FullName joins first and last name.
func (a Athlete) FullName() string {
	return strings.TrimSpace(a.First + " " + a.Last)
}
