// Package filter narrows parsed listing records down by date, district,
// category and title.
//
// Criteria combine with AND; values within one criterion combine with OR.
// Unstructured entries carry no district, category or date, so only the
// title criterion can match them.
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Districts = []string{"Mokotów"}
//	f.WeekendsOnly = true
//
//	kept := f.Apply(records)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

// Filter represents record filtering criteria
type Filter struct {
	// Calendar days, inclusive. An interval event matches when it overlaps.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Case-insensitive substring match on the title
	Titles []string `json:"titles,omitempty"`

	// Case-insensitive substring match on the district
	Districts []string `json:"districts,omitempty"`

	// Exact match on any of the event's categories, ignoring case
	Categories []string `json:"categories,omitempty"`

	// Event must fall on, or span, a Saturday or Sunday
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
func NewFilter() *Filter {
	return &Filter{
		Titles:     []string{},
		Districts:  []string{},
		Categories: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return len(f.Titles) == 0 && !f.structured()
}

// structured reports whether any criterion needs a structured event.
func (f *Filter) structured() bool {
	return f.DateFrom != nil ||
		f.DateTo != nil ||
		len(f.Districts) > 0 ||
		len(f.Categories) > 0 ||
		f.WeekendsOnly
}

// Matches checks if a record matches all active filter criteria.
// An empty filter matches every record.
func (f *Filter) Matches(rec event.Record) bool {
	if f.IsEmpty() {
		return true
	}
	if !containsAny(rec.Title(), f.Titles) {
		return false
	}
	if rec.Event == nil {
		return !f.structured()
	}
	return f.matchesEvent(rec.Event)
}

func (f *Filter) matchesEvent(evt *event.Event) bool {
	if !containsAny(evt.District, f.Districts) {
		return false
	}

	if len(f.Categories) > 0 && !hasCategory(evt.Categories, f.Categories) {
		return false
	}

	if f.DateFrom == nil && f.DateTo == nil && !f.WeekendsOnly {
		return true
	}

	// Date criteria need a parseable date
	first := day(evt.Start())
	if first.IsZero() {
		return false
	}
	last := day(evt.End())
	if last.Before(first) {
		last = first
	}

	if f.DateFrom != nil && last.Before(day(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && first.After(day(*f.DateTo)) {
		return false
	}

	if f.WeekendsOnly && !spansWeekend(first, last) {
		return false
	}

	return true
}

// Apply returns the records matching the filter, in order.
// If the filter is empty, returns the original slice unchanged.
func (f *Filter) Apply(records []event.Record) []event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := []event.Record{}
	for _, rec := range records {
		if f.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: 2026-01-29 | To: 2026-02-02 | Districts: Mokotów | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("2006-01-02")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("2006-01-02")))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Titles: %s", strings.Join(f.Titles, ", ")))
	}
	if len(f.Districts) > 0 {
		parts = append(parts, fmt.Sprintf("Districts: %s", strings.Join(f.Districts, ", ")))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

func containsAny(text string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	text = strings.ToLower(vocab.Normalize(text))
	for _, n := range needles {
		if strings.Contains(text, strings.ToLower(vocab.Normalize(n))) {
			return true
		}
	}
	return false
}

func hasCategory(have, want []string) bool {
	for _, h := range have {
		h = vocab.Normalize(h)
		for _, w := range want {
			if strings.EqualFold(h, vocab.Normalize(strings.TrimSpace(w))) {
				return true
			}
		}
	}
	return false
}

func spansWeekend(first, last time.Time) bool {
	// any seven consecutive days contain a weekend
	if last.Sub(first) >= 6*24*time.Hour {
		return true
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return true
		}
	}
	return false
}

// day drops the clock and moves t onto the listing's calendar.
func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.In(event.Warsaw)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, event.Warsaw)
}
