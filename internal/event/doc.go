// Package event provides the records produced by parsing a waw4free listing.
//
// A listing card becomes a Record carrying either an Event (a card with a
// district and a date or date interval, optionally geocoded) or an Other (a
// card whose date line names no district). The package also parses the
// listing's date formats and renders geocoded events as GeoJSON.
package event
