package scraper

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

type stubAddresses struct {
	address string
	calls   []string
}

func (s *stubAddresses) Resolve(_ context.Context, link string) string {
	s.calls = append(s.calls, link)
	return s.address
}

type stubGeocoder struct {
	pos   event.Position
	ok    bool
	calls []string
}

func (s *stubGeocoder) Resolve(_ context.Context, address string) (event.Position, bool) {
	s.calls = append(s.calls, address)
	return s.pos, s.ok
}

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelError, &strings.Builder{})
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func TestParseBoxes(t *testing.T) {
	doc, err := parseDocument(strings.NewReader(loadFixture(t, "listing.html")))
	if err != nil {
		t.Fatalf("parseDocument failed: %v", err)
	}

	addresses := &stubAddresses{address: "al. Niepodległości 162"}
	geo := &stubGeocoder{pos: event.Position{Latitude: 52.2, Longitude: 21.0}, ok: true}
	p, err := NewParser("https://waw4free.pl/", vocab.Default(),
		WithAddresses(addresses), WithGeocoder(geo), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	records := p.ParseBoxes(context.Background(), doc)

	// six cards, two without a usable anchor
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	t.Run("single date event", func(t *testing.T) {
		rec := records[0]
		if rec.Kind != event.KindEvent {
			t.Fatalf("kind = %s, want event", rec.Kind)
		}
		e := rec.Event
		if e.Title != "Finał WOŚP w SGH" {
			t.Errorf("title = %q", e.Title)
		}
		if e.Link != "https://waw4free.pl/wydarzenie-147368-final-wosp-w-sgh" {
			t.Errorf("link = %q", e.Link)
		}
		if e.Image != "https://waw4free.pl/media/wosp-147368.jpg" {
			t.Errorf("image = %q", e.Image)
		}
		if e.District != "Mokotów" {
			t.Errorf("district = %q", e.District)
		}
		if e.Date != "29.01.2026" || e.Time != "18:00" {
			t.Errorf("date/time = %q %q", e.Date, e.Time)
		}
		if e.StartDate != "" || e.EndDate != "" {
			t.Errorf("single date event should have no interval, got %q - %q", e.StartDate, e.EndDate)
		}
		if !reflect.DeepEqual(e.Categories, []string{"dla dzieci", "pikniki"}) {
			t.Errorf("categories = %q", e.Categories)
		}
		if e.Address != "al. Niepodległości 162" {
			t.Errorf("address = %q", e.Address)
		}
		if e.Position == nil || e.Position.Latitude != 52.2 {
			t.Errorf("position = %v", e.Position)
		}
	})

	t.Run("interval event", func(t *testing.T) {
		e := records[1].Event
		if e == nil {
			t.Fatalf("expected event, got %+v", records[1])
		}
		if e.StartDate != "12.01.2026" || e.EndDate != "15.01.2026" {
			t.Errorf("interval = %q - %q", e.StartDate, e.EndDate)
		}
		if e.Date != "" || e.Time != "" {
			t.Errorf("interval event should have no single date, got %q %q", e.Date, e.Time)
		}
		if e.District != "Śródmieście" {
			t.Errorf("district = %q", e.District)
		}
		if e.Image != "https://cdn.waw4free.pl/ogrod.jpg" {
			t.Errorf("image = %q", e.Image)
		}
		if !reflect.DeepEqual(e.Categories, []string{"wystawy", "w plenerze"}) {
			t.Errorf("categories = %q", e.Categories)
		}
	})

	t.Run("unstructured entry", func(t *testing.T) {
		rec := records[2]
		if rec.Kind != event.KindOther {
			t.Fatalf("kind = %s, want other", rec.Kind)
		}
		if rec.Other.Info != "cały tydzień, online" {
			t.Errorf("info = %q", rec.Other.Info)
		}
		if rec.Other.Link != "https://waw4free.pl/wydarzenie-147401-kurs-online" {
			t.Errorf("link = %q", rec.Other.Link)
		}
	})

	t.Run("event without date or title", func(t *testing.T) {
		e := records[3].Event
		if e == nil {
			t.Fatalf("expected event, got %+v", records[3])
		}
		if e.Title != NoTitle {
			t.Errorf("title = %q, want fallback", e.Title)
		}
		if e.District != "Praga-Północ" {
			t.Errorf("district = %q", e.District)
		}
		if e.Date != "" || e.Time != "" {
			t.Errorf("expected no date/time, got %q %q", e.Date, e.Time)
		}
	})

	if len(addresses.calls) != 3 {
		t.Errorf("address resolver called %d times, want 3 (events only)", len(addresses.calls))
	}
}

func TestParseBox_NoLocator(t *testing.T) {
	doc, err := parseDocument(strings.NewReader(loadFixture(t, "listing.html")))
	if err != nil {
		t.Fatalf("parseDocument failed: %v", err)
	}
	p, err := NewParser("https://waw4free.pl/", nil, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	rec, err := p.ParseBox(context.Background(), doc.Find(BoxSelector).First())
	if err != nil {
		t.Fatalf("ParseBox failed: %v", err)
	}
	if rec.Event.Address != "" || rec.Event.Position != nil {
		t.Errorf("without resolvers address/position should stay empty, got %q %v", rec.Event.Address, rec.Event.Position)
	}
}

func TestParseBox_Errors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want error
	}{
		{"no anchor", `<div class="box"><div class="box-data">Wola</div></div>`, ErrNoAnchor},
		{"no href", `<div class="box"><a title="x"></a></div>`, ErrNoLink},
		{"blank href", `<div class="box"><a href="  " title="x"></a></div>`, ErrNoLink},
	}

	p, err := NewParser("https://waw4free.pl/", nil, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseDocument(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("parseDocument failed: %v", err)
			}
			_, err = p.ParseBox(context.Background(), doc.Find(BoxSelector).First())
			if err != tt.want {
				t.Errorf("ParseBox() error = %v, want %v", err, tt.want)
			}
		})
	}
}

type panickingAddresses struct{}

func (panickingAddresses) Resolve(context.Context, string) string {
	panic("boom")
}

func TestParseBoxes_PanicSkipsCard(t *testing.T) {
	html := `
		<div class="box"><a href="/a" title="A"></a><div class="box-data">29.01.2026 10:00 Wola</div></div>
		<div class="box"><a href="/b" title="B"></a><div class="box-data">online</div></div>`
	doc, err := parseDocument(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parseDocument failed: %v", err)
	}
	p, err := NewParser("https://waw4free.pl/", nil,
		WithAddresses(panickingAddresses{}), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	records := p.ParseBoxes(context.Background(), doc)
	if len(records) != 1 || records[0].Title() != "B" {
		t.Errorf("expected only the sibling card B, got %+v", records)
	}
}

func TestLocate(t *testing.T) {
	t.Run("sentinel address skips geocoding", func(t *testing.T) {
		geo := &stubGeocoder{ok: true}
		p, _ := NewParser("https://waw4free.pl/", nil,
			WithAddresses(&stubAddresses{address: event.NoAddress}), WithGeocoder(geo))
		evt := &event.Event{Link: "https://waw4free.pl/x"}

		p.Locate(context.Background(), evt)

		if evt.Address != event.NoAddress {
			t.Errorf("address = %q", evt.Address)
		}
		if len(geo.calls) != 0 {
			t.Errorf("geocoder called for sentinel address: %v", geo.calls)
		}
	})

	t.Run("geocoder miss leaves position empty", func(t *testing.T) {
		geo := &stubGeocoder{ok: false}
		p, _ := NewParser("https://waw4free.pl/", nil,
			WithAddresses(&stubAddresses{address: "ul. Marszałkowska 1"}), WithGeocoder(geo))
		evt := &event.Event{Link: "https://waw4free.pl/x"}

		p.Locate(context.Background(), evt)

		if evt.Position != nil {
			t.Errorf("position = %v, want nil", evt.Position)
		}
		if len(geo.calls) != 1 || geo.calls[0] != "ul. Marszałkowska 1" {
			t.Errorf("geocoder calls = %v", geo.calls)
		}
	})

	t.Run("done context resolves nothing", func(t *testing.T) {
		addresses := &stubAddresses{address: "ul. Foksal 3"}
		geo := &stubGeocoder{ok: true}
		p, _ := NewParser("https://waw4free.pl/", nil, WithAddresses(addresses), WithGeocoder(geo))
		evt := &event.Event{Link: "https://waw4free.pl/x"}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p.Locate(ctx, evt)

		if evt.Address != "" || evt.Position != nil {
			t.Errorf("address = %q, position = %v, want both empty", evt.Address, evt.Position)
		}
		if len(addresses.calls) != 0 || len(geo.calls) != 0 {
			t.Errorf("resolvers called after cancellation: %v %v", addresses.calls, geo.calls)
		}
	})

	t.Run("existing address is kept", func(t *testing.T) {
		addresses := &stubAddresses{address: "other"}
		p, _ := NewParser("https://waw4free.pl/", nil, WithAddresses(addresses))
		evt := &event.Event{Link: "https://waw4free.pl/x", Address: "ul. Foksal 3"}

		p.Locate(context.Background(), evt)

		if evt.Address != "ul. Foksal 3" || len(addresses.calls) != 0 {
			t.Errorf("address = %q, calls = %v", evt.Address, addresses.calls)
		}
	})
}

func TestImageURL(t *testing.T) {
	p, _ := NewParser("https://waw4free.pl/", nil)

	tests := []struct {
		name  string
		style string
		want  string
	}{
		{"relative single quotes", "background-image: url('/media/a.jpg');", "https://waw4free.pl/media/a.jpg"},
		{"double quotes no space", `background-image:url("img/b.png")`, "https://waw4free.pl/img/b.png"},
		{"absolute", "background-image: url('https://cdn.example.com/c.jpg');", "https://cdn.example.com/c.jpg"},
		{"no url", "color: red", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseDocument(strings.NewReader(`<div class="box-image" style='` + tt.style + `'></div>`))
			if err != nil {
				t.Fatalf("parseDocument failed: %v", err)
			}
			if got := p.imageURL(doc.Find(imageSelector)); got != tt.want {
				t.Errorf("imageURL(%q) = %q, want %q", tt.style, got, tt.want)
			}
		})
	}

	doc, _ := parseDocument(strings.NewReader(`<div class="box"></div>`))
	if got := p.imageURL(doc.Find(imageSelector)); got != "" {
		t.Errorf("missing image block should give empty URL, got %q", got)
	}
}
