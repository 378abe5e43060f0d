package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

const (
	ProductID = "-//waw-events//waw-events//PL"
	uidDomain = "waw-events"

	// DefaultDuration is assumed for events listed with a start time only.
	DefaultDuration = 2 * time.Hour
)

// NewCalendar builds a calendar holding one VEVENT per event whose date can
// be parsed. It returns the calendar and the number of events left out.
// city closes every LOCATION; empty means vocab.DefaultCity.
func NewCalendar(events []*event.Event, city string, now time.Time) (*ical.Calendar, int) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	skipped := 0
	for _, evt := range events {
		vevent, ok := NewEvent(evt, city, now)
		if !ok {
			skipped++
			continue
		}
		cal.Children = append(cal.Children, vevent.Component)
	}
	return cal, skipped
}

// NewEvent converts evt into a VEVENT. ok is false when the event date
// cannot be parsed.
//
// Interval events and events without a start time become all-day entries;
// events with a start time last DefaultDuration.
func NewEvent(evt *event.Event, city string, now time.Time) (*ical.Event, bool) {
	start := evt.Start()
	if start.IsZero() {
		return nil, false
	}

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid(evt))
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())

	switch {
	case evt.IsInterval():
		end := evt.End()
		if end.Before(start) {
			end = start
		}
		vevent.Props.SetDate(ical.PropDateTimeStart, start)
		vevent.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
	case hasClock(evt):
		vevent.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(DefaultDuration).UTC())
	default:
		vevent.Props.SetDate(ical.PropDateTimeStart, start)
		vevent.Props.SetDate(ical.PropDateTimeEnd, start.AddDate(0, 0, 1))
	}

	vevent.Props.SetText(ical.PropSummary, evt.Title)
	if loc := location(evt, city); loc != "" {
		vevent.Props.SetText(ical.PropLocation, loc)
	}
	vevent.Props.SetText(ical.PropDescription, description(evt))
	if evt.Link != "" {
		url := ical.NewProp(ical.PropURL)
		url.Value = evt.Link
		vevent.Props.Set(url)
	}
	if evt.Position != nil {
		geo := ical.NewProp(ical.PropGeo)
		geo.Value = fmt.Sprintf("%.6f;%.6f", evt.Position.Latitude, evt.Position.Longitude)
		vevent.Props.Set(geo)
	}
	vevent.Props.SetText(ical.PropStatus, "CONFIRMED")
	vevent.Props.SetText(ical.PropTransparency, "TRANSPARENT")

	return vevent, true
}

// Encode writes events as an iCalendar document to w and returns the number
// of events left out for lack of a parseable date.
func Encode(w io.Writer, events []*event.Event, city string) (int, error) {
	cal, skipped := NewCalendar(events, city, time.Now())
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return skipped, fmt.Errorf("encoding calendar: %w", err)
	}
	return skipped, nil
}

func uid(evt *event.Event) string {
	id := evt.ID
	if id == "" {
		id = event.GenerateID(evt.Link, evt.Date+evt.StartDate)
	}
	return id + "@" + uidDomain
}

func hasClock(evt *event.Event) bool {
	_, _, ok := event.ParseClock(evt.Time)
	return ok
}

func location(evt *event.Event, city string) string {
	var parts []string
	if !event.IsNoAddress(evt.Address) {
		parts = append(parts, evt.Address)
	}
	if evt.District != "" {
		parts = append(parts, evt.District)
	}
	if city == "" {
		city = vocab.DefaultCity
	}
	parts = append(parts, city)
	return strings.Join(parts, ", ")
}

func description(evt *event.Event) string {
	var b strings.Builder
	if len(evt.Categories) > 0 {
		fmt.Fprintf(&b, "Kategorie: %s\n", strings.Join(evt.Categories, ", "))
	}
	if evt.Link != "" {
		fmt.Fprintf(&b, "Szczegóły: %s", evt.Link)
	}
	return strings.TrimSpace(b.String())
}
