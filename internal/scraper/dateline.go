package scraper

import (
	"strings"

	"github.com/geoportal-waw/waw-events/internal/vocab"
)

// intervalSeparator is the standalone token between two dates of an interval.
const intervalSeparator = "-"

const datePunct = ",.;"

// DateKind classifies what a date line places on the calendar.
type DateKind int

const (
	DateUnknown DateKind = iota
	DateInterval
	DateSingle
)

func (k DateKind) String() string {
	switch k {
	case DateInterval:
		return "interval"
	case DateSingle:
		return "single"
	default:
		return "unknown"
	}
}

// DateLine is the interpretation of a card's date/location line.
type DateLine struct {
	Kind      DateKind
	District  string // empty when no known district occurs in the line
	StartDate string
	EndDate   string
	Date      string
	Time      string
}

// HasDistrict reports whether a district was found. Cards without one are
// not placed on the calendar.
func (d DateLine) HasDistrict() bool {
	return d.District != ""
}

// ParseDateLine interprets a date line such as "29.01.2026 18:00 Wola" or
// "12.01.2026 - 15.01.2026, Mokotów".
func ParseDateLine(text string, v *vocab.Vocabulary) DateLine {
	text = vocab.Normalize(text)

	var dl DateLine
	if district, ok := v.District(text); ok {
		dl.District = district
	}

	if start, end, ok := ParseInterval(text); ok {
		dl.Kind = DateInterval
		dl.StartDate, dl.EndDate = start, end
		return dl
	}

	// a single date and time only count on a placed line
	if dl.District == "" {
		return dl
	}
	rest := strings.ReplaceAll(text, dl.District, "")
	parts := strings.Fields(strings.TrimSpace(rest))
	if len(parts) >= 2 {
		dl.Kind = DateSingle
		dl.Date = strings.Trim(parts[0], datePunct)
		dl.Time = strings.Trim(parts[1], datePunct)
	}
	return dl
}

// ParseInterval finds the first standalone "-" token and returns its
// neighbours with surrounding punctuation stripped. ok is false when there is
// no separator or it has no neighbour on either side.
func ParseInterval(text string) (start, end string, ok bool) {
	words := strings.Fields(text)
	for i, w := range words {
		if w != intervalSeparator {
			continue
		}
		if i == 0 || i == len(words)-1 {
			return "", "", false
		}
		return strings.Trim(words[i-1], datePunct), strings.Trim(words[i+1], datePunct), true
	}
	return "", "", false
}
