package notifier

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/geoportal-waw/waw-events/internal/event"
)

var (
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = (*DryRunNotifier)(nil)
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testRecords() []event.Record {
	return []event.Record{
		event.FromEvent(&event.Event{
			ID:       "e1",
			Title:    "Koncert",
			District: "Wola",
			Link:     "https://waw4free.pl/wydarzenie-1",
			Date:     "29.01.2026",
			Time:     "18:00",
		}),
		event.FromOther(&event.Other{ID: "o1", Title: "Kurs", Info: "online", Link: "https://waw4free.pl/wydarzenie-2"}),
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifierWithWriter(w, "waw-events")

	require.NoError(t, n.Notify(context.Background(), testRecords()))
	require.Len(t, w.msgs, 2)

	require.Equal(t, "e1", string(w.msgs[0].Key))
	require.Equal(t, "o1", string(w.msgs[1].Key))
	require.Equal(t, "event", header(w.msgs[0], HeaderKind))
	require.Equal(t, "other", header(w.msgs[1], HeaderKind))

	batch := header(w.msgs[0], HeaderBatchID)
	require.NotEmpty(t, batch)
	require.Equal(t, batch, header(w.msgs[1], HeaderBatchID), "one batch ID per Notify call")
	require.NotEmpty(t, header(w.msgs[0], HeaderPublishedAt))

	var rec event.Record
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &rec))
	require.Equal(t, "Koncert", rec.Title())
	require.Equal(t, "18:00", rec.Event.Time)

	require.NoError(t, n.Notify(context.Background(), testRecords()))
	require.NotEqual(t, batch, header(w.msgs[2], HeaderBatchID))

	require.NoError(t, n.Close())
	require.True(t, w.closed)
}

func TestKafkaNotifier_Errors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	n := NewKafkaNotifierWithWriter(w, "waw-events")

	require.NoError(t, n.Notify(context.Background(), nil), "empty batches are not written")
	require.ErrorContains(t, n.Notify(context.Background(), testRecords()), "broker down")

	require.ErrorContains(t, n.Notify(context.Background(), []event.Record{{Kind: "bogus"}}), "encoding record")

	_, err := NewKafkaNotifier(nil, "t")
	require.Error(t, err)
	_, err = NewKafkaNotifier([]string{"localhost:9092"}, "")
	require.Error(t, err)
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	require.NoError(t, n.Notify(context.Background(), testRecords()))
	require.NoError(t, n.Close())

	var lines []dryRunLine
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line dryRunLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	require.Equal(t, "e1", lines[0].Key)
	require.Equal(t, "other", lines[1].Headers[HeaderKind])
	require.Equal(t, lines[0].Headers[HeaderBatchID], lines[1].Headers[HeaderBatchID])

	var rec event.Record
	require.NoError(t, json.Unmarshal(lines[1].Value, &rec))
	require.Equal(t, "online", rec.Other.Info)
}
