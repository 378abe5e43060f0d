// Package cli implements the command-line interface for waw-events.
//
// The cli package provides the Cobra-based CLI: listing the events of a day,
// a range or the home page (text, JSON, GeoJSON or iCalendar output, sorted
// and filtered), serving the HTTP API, maintaining the location cache and
// publishing records to Kafka. It wires the scraper, address, geocode,
// storage and pipeline packages from the environment configuration.
package cli
