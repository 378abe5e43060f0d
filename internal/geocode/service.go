package geocode

import (
	"context"
	"errors"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/metrics"
)

// DefaultSuffix qualifies street addresses before they are sent to the provider.
const DefaultSuffix = ", Warszawa, Polska"

// Cache is the persistent store consulted before the provider.
type Cache interface {
	Get(ctx context.Context, address string) (event.Position, bool)
	Save(ctx context.Context, address string, lat, lon float64) bool
}

// Service resolves addresses cache-first. Only successful lookups are
// cached, so a failed address is retried on the next request.
type Service struct {
	cache    Cache
	provider Provider
	suffix   string
	log      *logger.Logger
}

// NewService creates a Service. An empty suffix falls back to DefaultSuffix.
func NewService(cache Cache, provider Provider, suffix string) *Service {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Service{
		cache:    cache,
		provider: provider,
		suffix:   suffix,
		log:      logger.Default().With(logger.Fields{"component": "geocode"}),
	}
}

// Resolve returns the coordinates of address. Empty and sentinel addresses
// miss without touching the cache or the provider.
func (s *Service) Resolve(ctx context.Context, address string) (event.Position, bool) {
	if address == "" || event.IsNoAddress(address) {
		return event.Position{}, false
	}

	if pos, ok := s.cache.Get(ctx, address); ok {
		metrics.GeocodeCache.WithLabelValues("hit").Inc()
		s.log.Debug("Cache hit", logger.Fields{"address": address})
		return pos, true
	}
	metrics.GeocodeCache.WithLabelValues("miss").Inc()

	pos, err := s.provider.Geocode(ctx, address+s.suffix)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			s.log.Warn("No geocoding match", logger.Fields{"address": address})
		} else {
			s.log.Error("Geocoding failed", logger.Fields{"address": address}, err)
		}
		return event.Position{}, false
	}

	s.cache.Save(ctx, address, pos.Latitude, pos.Longitude)
	s.log.Info("Geocoded address", logger.Fields{
		"address":   address,
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
	})
	return pos, true
}
