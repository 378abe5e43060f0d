// Package notifier publishes scraped listing records to downstream consumers.
//
// Records are sent as JSON messages keyed by record ID, either to a Kafka
// topic or, in dry-run mode, as JSON lines to a writer. Every message of one
// Notify call carries the same batch ID header.
package notifier
