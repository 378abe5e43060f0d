// Package geocode turns street addresses into coordinates, consulting the
// persistent location cache before the external provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/metrics"
)

// DefaultArcGISURL is the public ArcGIS World Geocoding endpoint.
const DefaultArcGISURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

// ErrNoMatch is returned when the provider has no candidate for a query.
var ErrNoMatch = errors.New("no geocoding match")

// Provider looks up coordinates for a full address query.
type Provider interface {
	Geocode(ctx context.Context, query string) (event.Position, error)
}

// ArcGIS is a Provider backed by the ArcGIS findAddressCandidates API.
type ArcGIS struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewArcGIS creates an ArcGIS client. Requests are throttled to rps per
// second with a burst of one; a non-positive rps disables throttling.
func NewArcGIS(endpoint string, timeout time.Duration, rps float64) *ArcGIS {
	if endpoint == "" {
		endpoint = DefaultArcGISURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &ArcGIS{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type candidatesResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Address  string  `json:"address"`
	Score    float64 `json:"score"`
	Location struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"location"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Geocode returns the position of the best candidate for query.
func (a *ArcGIS) Geocode(ctx context.Context, query string) (event.Position, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return event.Position{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	start := time.Now()
	pos, err := a.geocode(ctx, query)
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrNoMatch):
		metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	case err != nil:
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
	default:
		metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	}
	return pos, err
}

func (a *ArcGIS) geocode(ctx context.Context, query string) (event.Position, error) {
	params := url.Values{}
	params.Set("SingleLine", query)
	params.Set("f", "json")
	params.Set("maxLocations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return event.Position{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return event.Position{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return event.Position{}, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var result candidatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return event.Position{}, fmt.Errorf("decoding response: %w", err)
	}
	// ArcGIS reports some failures inside a 200 body
	if result.Error != nil {
		return event.Position{}, fmt.Errorf("geocoding failed: code=%d %s", result.Error.Code, result.Error.Message)
	}
	if len(result.Candidates) == 0 {
		return event.Position{}, ErrNoMatch
	}

	loc := result.Candidates[0].Location
	return event.Position{Latitude: loc.Y, Longitude: loc.X}, nil
}
