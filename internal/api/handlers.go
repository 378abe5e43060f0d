package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/pipeline"
)

// EventResponse is one event in a JSON listing.
type EventResponse struct {
	Title     string   `json:"title"`
	Address   *string  `json:"address"`
	District  *string  `json:"district"`
	Date      *string  `json:"date"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
	Time      *string  `json:"time"`
	Image     *string  `json:"image"`
	Link      string   `json:"link"`
	Category  []string `json:"category"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// EventsResponse is the listing of one day.
type EventsResponse struct {
	Date   string          `json:"date"`
	Total  int             `json:"total"`
	Events []EventResponse `json:"events"`
}

// RangeResponse is the listing of a range of days.
type RangeResponse struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Total     int             `json:"total"`
	Events    []EventResponse `json:"events"`
}

// StatsResponse reports the location cache size.
type StatsResponse struct {
	CachedLocations int64 `json:"cached_locations"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newEventResponse(e *event.Event) EventResponse {
	resp := EventResponse{
		Title:     e.Title,
		Address:   optional(e.Address),
		District:  optional(e.District),
		Date:      optional(e.Date),
		StartDate: optional(e.StartDate),
		EndDate:   optional(e.EndDate),
		Time:      optional(e.Time),
		Image:     optional(e.Image),
		Link:      e.Link,
		Category:  e.Categories,
	}
	if resp.Category == nil {
		resp.Category = []string{}
	}
	if e.Position != nil {
		lat, lon := e.Position.Latitude, e.Position.Longitude
		resp.Latitude, resp.Longitude = &lat, &lon
	}
	return resp
}

func newEventResponses(records []event.Record) []EventResponse {
	events := event.Events(records)
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e))
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "waw-events API",
		"version": Version,
		"endpoints": map[string]string{
			"events":       "/api/events?day=29&month=1&year=2026",
			"geojson":      "/api/events/geojson?day=29&month=1&year=2026",
			"events_range": "/api/events-range?start_day=29&start_month=1&start_year=2026&end_day=5&end_month=2&end_year=2026",
			"cache_stats":  "/api/cache/stats",
			"cache_clear":  "POST /api/cache/clear",
			"metrics":      "/metrics",
			"health":       "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query(), "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, ok := s.eventsFor(w, r, day)
	if !ok {
		return
	}

	events := newEventResponses(records)
	writeJSON(w, http.StatusOK, EventsResponse{
		Date:   day.Format("02.01.2006"),
		Total:  len(events),
		Events: events,
	})
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query(), "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, ok := s.eventsFor(w, r, day)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/geo+json; charset=utf-8")
	writeJSON(w, http.StatusOK, event.NewFeatureCollection(event.Events(records), s.bbox.Contains))
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDay(q, "start_")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDay(q, "end_")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if days := len(event.Days(start, end)); days > MaxRangeDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("range spans %d days, at most %d allowed", days, MaxRangeDays))
		return
	}

	s.mu.Lock()
	records, err := s.pipeline.EventsForRange(r.Context(), start, end)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("Range request failed", logger.Fields{"path": r.URL.Path}, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events := newEventResponses(records)
	writeJSON(w, http.StatusOK, RangeResponse{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Total:     len(events),
		Events:    events,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{CachedLocations: s.cache.Stats(r.Context())})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	removed, err := s.cache.Clear(r.Context())
	if err != nil {
		s.log.Error("Clearing cache failed", nil, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Cache cleared",
		"removed": removed,
	})
}

// eventsFor runs the pipeline for day and writes the error response itself
// when it fails.
func (s *Server) eventsFor(w http.ResponseWriter, r *http.Request, day time.Time) ([]event.Record, bool) {
	s.mu.Lock()
	records, err := s.pipeline.EventsFor(r.Context(), day)
	s.mu.Unlock()

	switch {
	case errors.Is(err, pipeline.ErrPageNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("no calendar page for %s", day.Format("2006-01-02")))
		return nil, false
	case err != nil:
		s.log.Error("Events request failed", logger.Fields{"path": r.URL.Path}, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return records, true
}

// parseDay reads <prefix>day, <prefix>month and <prefix>year as a calendar
// date in Warsaw time. Out-of-range values such as 31 February are rejected.
func parseDay(q url.Values, prefix string) (time.Time, error) {
	var parts [3]int
	for i, name := range []string{"day", "month", "year"} {
		raw := strings.TrimSpace(q.Get(prefix + name))
		if raw == "" {
			return time.Time{}, fmt.Errorf("missing query parameter %q", prefix+name)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid query parameter %q: %q", prefix+name, raw)
		}
		parts[i] = n
	}

	day, month, year := parts[0], parts[1], parts[2]
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("invalid date: year %d out of range", year)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, event.Warsaw)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date: %d-%d-%d", year, month, day)
	}
	return t, nil
}
