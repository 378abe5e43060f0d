package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/metrics"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

// Selectors for the listing card markup.
const (
	BoxSelector      = "div.box"
	imageSelector    = "div.box-image"
	dateSelector     = "div.box-data"
	categorySelector = "div.box-category"
)

// NoTitle replaces a missing anchor title.
const NoTitle = "Brak tytułu"

var (
	ErrNoAnchor = errors.New("card has no anchor")
	ErrNoLink   = errors.New("card anchor has no href")
)

var backgroundImage = regexp.MustCompile(`background-image:\s*url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// AddressResolver turns an event detail link into a street address.
type AddressResolver interface {
	Resolve(ctx context.Context, link string) string
}

// Geocoder turns an address into coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (event.Position, bool)
}

// Parser classifies listing cards into records.
type Parser struct {
	base      *url.URL
	vocab     *vocab.Vocabulary
	addresses AddressResolver
	geocoder  Geocoder
	log       *logger.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithAddresses resolves each structured event's address while parsing.
func WithAddresses(r AddressResolver) Option {
	return func(p *Parser) { p.addresses = r }
}

// WithGeocoder geocodes each resolved address while parsing.
// It has no effect without WithAddresses.
func WithGeocoder(g Geocoder) Option {
	return func(p *Parser) { p.geocoder = g }
}

// WithLogger sets the logger used for skipped cards.
func WithLogger(l *logger.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// NewParser creates a Parser resolving relative links against baseURL.
func NewParser(baseURL string, v *vocab.Vocabulary, opts ...Option) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if v == nil {
		v = vocab.Default()
	}
	p := &Parser{base: base, vocab: v, log: logger.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Vocabulary returns the parser's vocabulary.
func (p *Parser) Vocabulary() *vocab.Vocabulary {
	return p.vocab
}

// ParseBoxes classifies every card of doc in document order. Cards that fail
// to parse are logged and left out; they never stop their siblings.
func (p *Parser) ParseBoxes(ctx context.Context, doc *goquery.Document) []event.Record {
	boxes := doc.Find(BoxSelector)
	records := make([]event.Record, 0, boxes.Length())

	boxes.Each(func(i int, box *goquery.Selection) {
		rec, err := p.safeParseBox(ctx, box)
		if err != nil {
			metrics.CardsParsed.WithLabelValues("skipped").Inc()
			p.log.Warn("Skipping card", logger.Fields{"index": i, "reason": err.Error()})
			return
		}
		metrics.CardsParsed.WithLabelValues(string(rec.Kind)).Inc()
		records = append(records, rec)
	})

	p.log.Info("Parsed listing", logger.Fields{"cards": boxes.Length(), "records": len(records)})
	return records
}

func (p *Parser) safeParseBox(ctx context.Context, box *goquery.Selection) (rec event.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing card: %v", r)
		}
	}()
	return p.ParseBox(ctx, box)
}

// ParseBox turns one card into an event (when its date line names a
// district) or an unstructured entry.
func (p *Parser) ParseBox(ctx context.Context, box *goquery.Selection) (event.Record, error) {
	a := box.Find("a").First()
	if a.Length() == 0 {
		return event.Record{}, ErrNoAnchor
	}
	href, ok := a.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return event.Record{}, ErrNoLink
	}
	link, err := p.resolve(href)
	if err != nil {
		return event.Record{}, fmt.Errorf("resolving link %q: %w", href, err)
	}

	title := NoTitle
	if t, ok := a.Attr("title"); ok && strings.TrimSpace(t) != "" {
		title = strings.TrimSpace(t)
	}

	image := p.imageURL(box.Find(imageSelector).First())

	dateLine := strings.TrimSpace(box.Find(dateSelector).First().Text())
	categories := ParseCategories(box.Find(categorySelector).First().Text(), p.vocab)

	dl := ParseDateLine(dateLine, p.vocab)
	if !dl.HasDistrict() {
		return event.FromOther(&event.Other{
			ID:    event.GenerateID(link, dateLine),
			Title: title,
			Image: image,
			Info:  dateLine,
			Link:  link,
		}), nil
	}

	evt := &event.Event{
		ID:         event.GenerateID(link, dateLine),
		Title:      title,
		Image:      image,
		District:   dl.District,
		Link:       link,
		Categories: categories,
	}
	if dl.Kind == DateInterval {
		evt.StartDate, evt.EndDate = dl.StartDate, dl.EndDate
	} else {
		evt.Date, evt.Time = dl.Date, dl.Time
	}

	p.Locate(ctx, evt)
	return event.FromEvent(evt), nil
}

// Locate fills the address and position of evt through the configured
// resolvers. Fields already set are left alone, and nothing is resolved once
// ctx is done.
func (p *Parser) Locate(ctx context.Context, evt *event.Event) {
	if p.addresses == nil || ctx.Err() != nil {
		return
	}
	if evt.Address == "" {
		evt.Address = p.addresses.Resolve(ctx, evt.Link)
	}
	if p.geocoder == nil || evt.Position != nil || event.IsNoAddress(evt.Address) {
		return
	}
	if pos, ok := p.geocoder.Resolve(ctx, evt.Address); ok {
		evt.Position = &pos
	}
}

func (p *Parser) imageURL(div *goquery.Selection) string {
	style, ok := div.Attr("style")
	if !ok {
		return ""
	}
	m := backgroundImage.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	u, err := p.resolve(m[1])
	if err != nil {
		return ""
	}
	return u
}

func (p *Parser) resolve(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return p.base.ResolveReference(u).String(), nil
}
