package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/geoportal-waw/waw-events/internal/event"
)

// DryRunNotifier prints the messages that would be published without
// connecting to a broker.
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to out, or to stdout
// when out is nil.
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

type dryRunLine struct {
	Key     string            `json:"key"`
	Headers map[string]string `json:"headers"`
	Value   json.RawMessage   `json:"value"`
}

// Notify writes one JSON line per message.
func (n *DryRunNotifier) Notify(_ context.Context, records []event.Record) error {
	msgs, _, err := buildMessages(records, time.Now())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(n.out)
	for _, msg := range msgs {
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		line := dryRunLine{Key: string(msg.Key), Headers: headers, Value: msg.Value}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("writing dry-run message: %w", err)
		}
	}
	return nil
}

// Close is a no-op.
func (n *DryRunNotifier) Close() error {
	return nil
}
