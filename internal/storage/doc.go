// Package storage provides the persistent geocoding cache.
//
// Each row of the locations table maps a street address to the coordinates
// returned by the geocoding provider, with the time it was cached. The
// default store is a SQLite file under ~/.local/share/waw-events/; a
// PostgreSQL DSN can be used instead for shared deployments.
package storage
