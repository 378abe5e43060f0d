package cli

import (
	"sort"
	"strings"

	"github.com/geoportal-waw/waw-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByDistrict SortOrder = "district"
	SortByTitle    SortOrder = "title"
)

func (o SortOrder) valid() bool {
	switch o {
	case SortByDate, SortByDistrict, SortByTitle:
		return true
	}
	return false
}

// sortRecords sorts events by the given order. Unstructured entries move to
// the end and keep their listing order.
func sortRecords(records []event.Record, sortOrder SortOrder) {
	sort.SliceStable(records, func(i, j int) bool {
		ei, ej := records[i].Event, records[j].Event
		if ei == nil || ej == nil {
			return ei != nil && ej == nil
		}
		return lessEvent(ei, ej, sortOrder)
	})
}

func lessEvent(i, j *event.Event, sortOrder SortOrder) bool {
	switch sortOrder {
	case SortByDistrict:
		if i.District != j.District {
			return i.District < j.District
		}
		// If districts are equal, sort by date
		return compareByDate(i, j)
	case SortByTitle:
		ti, tj := strings.ToLower(i.Title), strings.ToLower(j.Title)
		if ti != tj {
			return ti < tj
		}
		// If titles are equal, sort by date
		return compareByDate(i, j)
	default:
		return compareByDate(i, j)
	}
}

// compareByDate compares two events by their start
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	dateI := i.Start()
	dateJ := j.Start()

	// If both dates are valid, compare them
	if !dateI.IsZero() && !dateJ.IsZero() {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
	} else if !dateI.IsZero() {
		// If only one date is valid, put the valid one first
		return true
	} else if !dateJ.IsZero() {
		return false
	}

	// Same or no dates: sort by district then title
	if i.District != j.District {
		return i.District < j.District
	}
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
