package event

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
)

// Address sentinels stored in Event.Address when no street address is known.
const (
	NoAddress           = "Brak adresu"
	NoAddressFetchError = "Brak adresu (błąd pobierania)"
)

// IsNoAddress reports whether address is empty or one of the sentinels.
func IsNoAddress(address string) bool {
	switch strings.TrimSpace(address) {
	case "", NoAddress, NoAddressFetchError:
		return true
	}
	return false
}

// Position is a geographic coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Event is a listing card placed on the calendar: it names a district and
// either a date interval or a single date and time.
type Event struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Image      string    `json:"image"`
	District   string    `json:"district"`
	Address    string    `json:"address"`
	Link       string    `json:"link"`
	Categories []string  `json:"category"`
	StartDate  string    `json:"start_date,omitempty"`
	EndDate    string    `json:"end_date,omitempty"`
	Date       string    `json:"date,omitempty"`
	Time       string    `json:"time,omitempty"`
	Position   *Position `json:"position,omitempty"`
}

// Other is a listing card without a recognizable district. Its date line is
// kept verbatim as Info.
type Other struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	Info  string `json:"info"`
	Link  string `json:"link"`
}

// IsInterval reports whether the event spans a start and end date.
func (e *Event) IsInterval() bool {
	return e.StartDate != "" && e.EndDate != ""
}

// HasPosition reports whether the event has been geocoded.
func (e *Event) HasPosition() bool {
	return e.Position != nil
}

// Kind tags the payload carried by a Record.
type Kind string

const (
	KindEvent Kind = "event"
	KindOther Kind = "other"
)

// Record is one parsed listing card: exactly one of Event or Other is set.
type Record struct {
	Kind  Kind
	Event *Event
	Other *Other
}

// FromEvent wraps a structured event.
func FromEvent(e *Event) Record {
	return Record{Kind: KindEvent, Event: e}
}

// FromOther wraps an unstructured entry.
func FromOther(o *Other) Record {
	return Record{Kind: KindOther, Other: o}
}

// ID returns the ID of whichever payload is set.
func (r Record) ID() string {
	if r.Event != nil {
		return r.Event.ID
	}
	if r.Other != nil {
		return r.Other.ID
	}
	return ""
}

// Title returns the title of whichever payload is set.
func (r Record) Title() string {
	if r.Event != nil {
		return r.Event.Title
	}
	if r.Other != nil {
		return r.Other.Title
	}
	return ""
}

// Link returns the detail link of whichever payload is set.
func (r Record) Link() string {
	if r.Event != nil {
		return r.Event.Link
	}
	if r.Other != nil {
		return r.Other.Link
	}
	return ""
}

// MarshalJSON flattens the payload and adds a "kind" discriminator.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindEvent:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*Event
		}{r.Kind, r.Event})
	case KindOther:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*Other
		}{r.Kind, r.Other})
	default:
		return nil, fmt.Errorf("unknown record kind %q", r.Kind)
	}
}

// UnmarshalJSON restores a record written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Kind {
	case KindEvent:
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*r = FromEvent(&e)
	case KindOther:
		var o Other
		if err := json.Unmarshal(data, &o); err != nil {
			return err
		}
		*r = FromOther(&o)
	default:
		return fmt.Errorf("unknown record kind %q", head.Kind)
	}
	return nil
}

// Events returns the structured events among records, in order.
func Events(records []Record) []*Event {
	out := make([]*Event, 0, len(records))
	for _, r := range records {
		if r.Event != nil {
			out = append(out, r.Event)
		}
	}
	return out
}

// GenerateID creates a deterministic ID for a card from its detail link and
// date line, so a card listed on several days keeps one ID.
func GenerateID(link, dateText string) string {
	h := sha1.New()
	h.Write([]byte(link + "|" + dateText))
	return fmt.Sprintf("%x", h.Sum(nil))
}
