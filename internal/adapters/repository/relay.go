package repository

import (
	"regexp"
	"strings"

	"github.com/okian/trackrank/internal/domain/model"
)

// rosterSeparators splits an athlete_names blob such as
// "A. Smith & B. Jones / C. Lee and D. Park" into names.
var rosterSeparators = regexp.MustCompile(`(?i)\s+and\s+|[&/;,+]`)

// RosterNames splits a relay roster into trimmed, non-empty names.
func RosterNames(blob string) []string {
	parts := rosterSeparators.Split(blob, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OnRoster reports whether the athlete appears in a relay roster. A roster
// name matches when it carries the athlete's last name plus the first name
// or its initial, ignoring case and periods.
func OnRoster(a model.Athlete, blob string) bool {
	first := strings.ToLower(strings.TrimSpace(a.First))
	last := strings.ToLower(strings.TrimSpace(a.Last))
	if last == "" {
		return false
	}
	for _, name := range RosterNames(blob) {
		tokens := strings.Fields(strings.ToLower(strings.ReplaceAll(name, ".", " ")))
		if !strings.Contains(" "+strings.Join(tokens, " ")+" ", " "+last+" ") {
			continue
		}
		if first == "" {
			return true
		}
		for _, t := range tokens {
			if t == first || (len(t) == 1 && strings.HasPrefix(first, t)) {
				return true
			}
		}
	}
	return false
}
