package notifier

import (
	"context"

	"github.com/geoportal-waw/waw-events/internal/event"
)

// Notifier publishes records.
type Notifier interface {
	// Notify publishes records as one batch.
	Notify(ctx context.Context, records []event.Record) error
	Close() error
}
