// Package codec converts performance strings to canonical numbers and back.
//
// Times are measured in seconds and distances in inches. Parsing accepts the
// formats meet results are published in; formatting renders the display
// convention used across the product.
package codec

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ordering"
)

// Stored values meaning "no mark".
const (
	NoMarkTime     = 9999.0
	NoMarkDistance = 0.0
)

// Display granularity.
const (
	centisPerSecond = 100
	quartersPerInch = 4
	inchesPerFoot   = 12
	secondsPerMin   = 60
	secondsPerHour  = 3600
)

var (
	timePattern     = regexp.MustCompile(`^\s*(?:(\d+):)?(?:(\d+):)?(\d+(?:\.\d+)?)\s*[hH]?\s*$`)
	distancePattern = regexp.MustCompile(`^\s*(?:(\d+)\s*(?:'|ft)\s*)?(?:(\d+(?:\.\d+)?)\s*(?:"|in)?)?\s*$`)
)

// ParseTime converts SS(.ff), MM:SS(.ff) or HH:MM:SS(.ff) to seconds.
// A trailing hand-timing marker "h" is ignored.
func ParseTime(text string) (float64, error) {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, &FormatError{Input: text, Unit: "time"}
	}
	var hours, minutes int
	switch {
	case m[1] != "" && m[2] != "":
		hours, _ = strconv.Atoi(m[1])
		minutes, _ = strconv.Atoi(m[2])
	case m[1] != "":
		minutes, _ = strconv.Atoi(m[1])
	}
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, &FormatError{Input: text, Unit: "time"}
	}
	return float64(hours*secondsPerHour+minutes*secondsPerMin) + seconds, nil
}

// ParseDistance converts F' I", F' or bare inches to inches. The unit words
// "ft" and "in" are accepted in place of the quote marks.
func ParseDistance(text string) (float64, error) {
	m := distancePattern.FindStringSubmatch(text)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, &FormatError{Input: text, Unit: "distance"}
	}
	var feet int
	if m[1] != "" {
		feet, _ = strconv.Atoi(m[1])
	}
	var inches float64
	if m[2] != "" {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, &FormatError{Input: text, Unit: "distance"}
		}
		inches = v
	}
	return float64(feet*inchesPerFoot) + inches, nil
}

// FormatTime renders seconds with two decimals. Values of a minute or more
// use M:SS.ff and values of an hour or more use H:MM:SS.ff.
func FormatTime(seconds float64) string {
	centis := int64(math.Round(seconds * centisPerSecond))
	sign := ""
	if centis < 0 {
		sign = "-"
		centis = -centis
	}
	hours := centis / (secondsPerHour * centisPerSecond)
	minutes := centis / (secondsPerMin * centisPerSecond) % secondsPerMin
	secs := centis % (secondsPerMin * centisPerSecond)
	whole, frac := secs/centisPerSecond, secs%centisPerSecond

	switch {
	case hours > 0:
		return fmt.Sprintf("%s%d:%02d:%02d.%02d", sign, hours, minutes, whole, frac)
	case minutes > 0:
		return fmt.Sprintf("%s%d:%02d.%02d", sign, minutes, whole, frac)
	default:
		return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
	}
}

// FormatDistance renders inches as F' I" at quarter-inch granularity with
// trailing zeros trimmed.
func FormatDistance(inches float64) string {
	quarters := int64(math.Round(inches * quartersPerInch))
	feet := quarters / (inchesPerFoot * quartersPerInch)
	rest := float64(quarters%(inchesPerFoot*quartersPerInch)) / quartersPerInch
	return fmt.Sprintf("%d' %s\"", feet, strconv.FormatFloat(rest, 'f', -1, 64))
}

// Parse converts text using the convention for category.
func Parse(c model.Category, text string) (float64, error) {
	if ordering.IsLowerBetter(c) {
		return ParseTime(text)
	}
	return ParseDistance(text)
}

// Format renders value using the convention for category.
func Format(c model.Category, value float64) string {
	if ordering.IsLowerBetter(c) {
		return FormatTime(value)
	}
	return FormatDistance(value)
}

// IsNoMark reports whether value is one of the stored "no mark" sentinels.
func IsNoMark(value float64) bool {
	return value == NoMarkDistance || value == NoMarkTime
}

// Normalize trims and collapses whitespace in display strings.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
