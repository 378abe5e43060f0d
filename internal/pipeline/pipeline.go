// Package pipeline drives the listing scrape for a day, a date range or the
// home page, and enriches parsed events with addresses and coordinates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/scraper"
)

// Page markers used by the site instead of HTTP status codes.
const (
	NoEventsText     = "W tym dniu nie ma jeszcze żadnych wydarzeń."
	PageNotFoundText = "Strona, której szukasz nie istnieje."
)

var (
	// ErrPageNotFound means the site rendered its "page does not exist"
	// notice for the requested day.
	ErrPageNotFound = errors.New("calendar page does not exist")

	// ErrInvalidRange means the range end is before its start.
	ErrInvalidRange = errors.New("end date is before start date")
)

// Fetcher downloads and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Locator fills in the address and position of an event.
type Locator interface {
	Locate(ctx context.Context, evt *event.Event)
}

// Driver runs the scrape against one site.
type Driver struct {
	base    string
	fetcher Fetcher
	parser  *scraper.Parser
	locator Locator
	log     *logger.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLocator sets the Locator used by Enrich. By default Enrich uses the
// parser, which only locates events when it has resolvers configured.
func WithLocator(l Locator) Option {
	return func(d *Driver) { d.locator = l }
}

// New creates a Driver for the site at baseURL.
func New(baseURL string, fetcher Fetcher, parser *scraper.Parser, opts ...Option) *Driver {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	d := &Driver{
		base:    baseURL,
		fetcher: fetcher,
		parser:  parser,
		locator: parser,
		log:     logger.Default().With(logger.Fields{"component": "pipeline"}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CalendarURL returns the listing URL of day, without zero padding.
func (d *Driver) CalendarURL(day time.Time) string {
	return fmt.Sprintf("%swarszawa-wydarzenia-%d-%d-%d", d.base, day.Year(), int(day.Month()), day.Day())
}

// EventsFor returns the records listed for day.
//
// An unreachable page and a day without events both yield an empty result
// and no error. A page the site reports as missing yields an empty result
// and ErrPageNotFound.
func (d *Driver) EventsFor(ctx context.Context, day time.Time) ([]event.Record, error) {
	url := d.CalendarURL(day)
	fields := logger.Fields{"date": day.Format("2006-01-02"), "url": url}

	doc, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		d.log.Error("Fetching calendar page failed", fields, err)
		return []event.Record{}, nil
	}

	text := doc.Text()
	if strings.Contains(text, NoEventsText) {
		d.log.Info("No events on day", fields)
		return []event.Record{}, nil
	}
	if strings.Contains(text, PageNotFoundText) {
		d.log.Warn("Calendar page does not exist", fields)
		return []event.Record{}, ErrPageNotFound
	}

	return d.parser.ParseBoxes(ctx, doc), nil
}

// EventsForRange concatenates the records of every day from start to end
// inclusive, in day order. A failing day contributes nothing.
func (d *Driver) EventsForRange(ctx context.Context, start, end time.Time) ([]event.Record, error) {
	days := event.Days(start, end)
	if days == nil {
		return nil, ErrInvalidRange
	}

	records := []event.Record{}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		dayRecords, err := d.EventsFor(ctx, day)
		if err != nil {
			d.log.Warn("Skipping day", logger.Fields{"date": day.Format("2006-01-02"), "error": err.Error()})
			continue
		}
		records = append(records, dayRecords...)
	}

	d.log.Info("Collected range", logger.Fields{
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
		"days":    len(days),
		"records": len(records),
	})
	return records, nil
}

// Recommended returns the records featured on the home page.
// An unreachable home page yields an empty result.
func (d *Driver) Recommended(ctx context.Context) ([]event.Record, error) {
	doc, err := d.fetcher.Fetch(ctx, d.base)
	if err != nil {
		d.log.Error("Fetching home page failed", logger.Fields{"url": d.base}, err)
		return []event.Record{}, nil
	}
	return d.parser.ParseBoxes(ctx, doc), nil
}

// Enrich fills the missing address and position of every event in records.
func (d *Driver) Enrich(ctx context.Context, records []event.Record) {
	for _, evt := range event.Events(records) {
		if ctx.Err() != nil {
			return
		}
		d.locator.Locate(ctx, evt)
	}
}
