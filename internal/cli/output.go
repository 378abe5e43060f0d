package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/geoportal-waw/waw-events/internal/calendar"
	"github.com/geoportal-waw/waw-events/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatJSON    OutputFormat = "json"
	FormatGeoJSON OutputFormat = "geojson"
	FormatICS     OutputFormat = "ics"
)

func (f OutputFormat) valid() bool {
	switch f {
	case FormatText, FormatJSON, FormatGeoJSON, FormatICS:
		return true
	}
	return false
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time                 `json:"checked_at"`
	From        string                    `json:"from,omitempty"`
	To          string                    `json:"to,omitempty"`
	Recommended bool                      `json:"recommended,omitempty"`
	Records     []event.Record            `json:"records"`
	EventCount  int                       `json:"event_count"`
	OtherCount  int                       `json:"other_count"`
	ByDistrict  map[string][]*event.Event `json:"by_district,omitempty"`

	// City closes calendar locations.
	City string `json:"-"`
}

func newOutputResult(records []event.Record, src source, order SortOrder) *OutputResult {
	result := &OutputResult{
		CheckedAt:   time.Now().UTC(),
		Recommended: src.recommended,
		Records:     records,
	}
	if !src.recommended {
		result.From = src.from.Format("2006-01-02")
		result.To = src.to.Format("2006-01-02")
	}

	events := event.Events(records)
	result.EventCount = len(events)
	result.OtherCount = len(records) - len(events)

	if order == SortByDistrict && len(events) > 0 {
		result.ByDistrict = make(map[string][]*event.Event)
		for _, evt := range events {
			result.ByDistrict[evt.District] = append(result.ByDistrict[evt.District], evt)
		}
	}
	return result
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatGeoJSON:
		return writeJSON(w, event.NewFeatureCollection(event.Events(result.Records), nil))
	case FormatICS:
		_, err := calendar.Encode(w, event.Events(result.Records), result.City)
		return err
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Records) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	if len(result.ByDistrict) > 0 {
		districts := make([]string, 0, len(result.ByDistrict))
		for d := range result.ByDistrict {
			districts = append(districts, d)
		}
		sort.Strings(districts)

		for _, d := range districts {
			events := result.ByDistrict[d]
			fmt.Fprintf(w, "\n%s (%d):\n", d, len(events))
			for _, evt := range events {
				fmt.Fprintf(w, "  %s  %s\n", when(evt), evt.Title)
				if verbose {
					writeDetails(w, evt, "       ")
				}
			}
		}
	} else {
		for _, evt := range event.Events(result.Records) {
			fmt.Fprintf(w, "%s  %s (%s)\n", when(evt), evt.Title, evt.District)
			if verbose {
				writeDetails(w, evt, "     ")
			}
		}
	}

	if result.OtherCount > 0 {
		fmt.Fprintf(w, "\nOther (%d):\n", result.OtherCount)
		for _, rec := range result.Records {
			if rec.Other == nil {
				continue
			}
			fmt.Fprintf(w, "  %s", rec.Other.Title)
			if rec.Other.Info != "" {
				fmt.Fprintf(w, " [%s]", rec.Other.Info)
			}
			fmt.Fprintln(w)
			if verbose {
				fmt.Fprintf(w, "       Link: %s\n", rec.Other.Link)
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events, %d other\n", result.EventCount, result.OtherCount)
	return nil
}

func writeDetails(w io.Writer, evt *event.Event, indent string) {
	fmt.Fprintf(w, "%sID: %s\n", indent, evt.ID)
	if evt.Address != "" {
		fmt.Fprintf(w, "%sAddress: %s\n", indent, evt.Address)
	}
	if len(evt.Categories) > 0 {
		fmt.Fprintf(w, "%sCategories: %s\n", indent, strings.Join(evt.Categories, ", "))
	}
	if evt.Position != nil {
		fmt.Fprintf(w, "%sPosition: %.6f, %.6f\n", indent, evt.Position.Latitude, evt.Position.Longitude)
	}
	fmt.Fprintf(w, "%sLink: %s\n", indent, evt.Link)
}

// when renders the date part of a text line.
func when(evt *event.Event) string {
	switch {
	case evt.IsInterval():
		return evt.StartDate + " - " + evt.EndDate
	case evt.Date == "":
		return "(no date)"
	case evt.Time != "":
		return evt.Date + " " + evt.Time
	default:
		return evt.Date
	}
}
