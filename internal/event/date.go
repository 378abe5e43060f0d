package event

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// Warsaw is the time zone of the listing.
var Warsaw = loadWarsaw()

func loadWarsaw() *time.Location {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate attempts to parse listing date text into a time.Time.
// Returns time.Time{} (zero value) if parsing fails.
// Supports formats: "29.01.2026", "29.01.26", "2026-01-29", "29.01"
func ParseDate(dateText string) time.Time {
	dateText = strings.Trim(strings.TrimSpace(dateText), ",.;")
	if dateText == "" {
		return time.Time{}
	}

	for _, layout := range []string{"2.1.2006", "02.01.2006", "2.1.06", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, dateText, Warsaw); err == nil {
			return t
		}
	}

	// Day and month only, assume the current year
	if t, err := time.ParseInLocation("2.1", dateText, Warsaw); err == nil {
		now := time.Now().In(Warsaw)
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Warsaw)
	}

	return time.Time{}
}

// ParseClock parses an "18:00" style time of day into hours and minutes.
func ParseClock(text string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", strings.Trim(strings.TrimSpace(text), ",.;"))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// Start returns the first calendar day of the event, or the zero time when
// the date text cannot be parsed.
func (e *Event) Start() time.Time {
	if e.IsInterval() {
		return ParseDate(e.StartDate)
	}
	day := ParseDate(e.Date)
	if day.IsZero() {
		return day
	}
	if h, m, ok := ParseClock(e.Time); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, Warsaw)
	}
	return day
}

// End returns the last calendar day of an interval event, or Start otherwise.
func (e *Event) End() time.Time {
	if e.IsInterval() {
		return ParseDate(e.EndDate)
	}
	return e.Start()
}

// IsPastEvent checks if an event has ended.
// Returns false if the date cannot be parsed (safer default).
func (e *Event) IsPastEvent() bool {
	end := e.End()
	if end.IsZero() {
		return false
	}
	// interval end dates cover the whole day
	if e.IsInterval() {
		end = end.AddDate(0, 0, 1)
	}
	return end.Before(time.Now())
}

// Days returns every calendar day from start to end inclusive.
// Returns nil when end is before start.
func Days(start, end time.Time) []time.Time {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
