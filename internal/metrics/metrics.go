// Package metrics exposes Prometheus collectors for the listing pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waw_events"

// Registry holds every collector of this package plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	PagesFetched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Listing and detail pages fetched, by result.",
	}, []string{"result"})

	CardsParsed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cards_parsed_total",
		Help:      "Listing cards processed, by outcome (event, other, skipped).",
	}, []string{"outcome"})

	AddressLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "address_lookups_total",
		Help:      "Detail-page address lookups, by memo result (hit, miss).",
	}, []string{"result"})

	GeocodeCache = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_cache_total",
		Help:      "Location cache lookups, by result (hit, miss).",
	}, []string{"result"})

	GeocodeRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_provider_requests_total",
		Help:      "Calls to the external geocoding provider, by result (ok, empty, error).",
	}, []string{"result"})

	GeocodeDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "geocode_provider_duration_seconds",
		Help:      "Latency of external geocoding calls.",
		Buckets:   prometheus.DefBuckets,
	})

	CachedLocations = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cached_locations",
		Help:      "Distinct addresses in the location cache at the last stats call.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
