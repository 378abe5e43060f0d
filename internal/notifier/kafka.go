package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
)

// Message header keys.
const (
	HeaderBatchID     = "batch_id"
	HeaderKind        = "kind"
	HeaderPublishedAt = "published_at"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes records to a Kafka topic.
type KafkaNotifier struct {
	writer MessageWriter
	topic  string
	log    *logger.Logger
}

// NewKafkaNotifier creates a notifier writing to topic on brokers.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no Kafka brokers configured")
	}
	if topic == "" {
		return nil, errors.New("no Kafka topic configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
	}
	return NewKafkaNotifierWithWriter(w, topic), nil
}

// NewKafkaNotifierWithWriter creates a notifier around an existing writer.
func NewKafkaNotifierWithWriter(w MessageWriter, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: w,
		topic:  topic,
		log:    logger.Default().With(logger.Fields{"component": "notifier", "topic": topic}),
	}
}

// Notify writes one message per record. Records sharing an ID land on the
// same partition.
func (n *KafkaNotifier) Notify(ctx context.Context, records []event.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs, batchID, err := buildMessages(records, time.Now())
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d messages to %s: %w", len(msgs), n.topic, err)
	}
	n.log.Info("Published records", logger.Fields{"batch_id": batchID, "count": len(msgs)})
	return nil
}

// Close flushes pending messages and closes the writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func buildMessages(records []event.Record, now time.Time) ([]kafka.Message, string, error) {
	batchID := uuid.NewString()
	published := now.UTC().Format(time.RFC3339)

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		value, err := json.Marshal(rec)
		if err != nil {
			return nil, "", fmt.Errorf("encoding record %s: %w", rec.ID(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.ID()),
			Value: value,
			Headers: []kafka.Header{
				{Key: HeaderBatchID, Value: []byte(batchID)},
				{Key: HeaderKind, Value: []byte(rec.Kind)},
				{Key: HeaderPublishedAt, Value: []byte(published)},
			},
		})
	}
	return msgs, batchID, nil
}
