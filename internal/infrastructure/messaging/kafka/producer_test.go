package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

type capturingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *capturingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *capturingWriter) Close() error {
	w.closed = true
	return nil
}

func testPatent(version int) *patent.Patent {
	return &patent.Patent{
		PatentID: "10000001",
		Source:   patent.SourcePatentsView,
		Title:    "Widget",
		Metadata: &patent.Metadata{Version: version},
	}
}

func newTestProducer(w writerInterface) *Producer {
	return &Producer{
		writer: w,
		topic:  "patentflow.patent-changes",
		logger: logging.NewNopLogger(),
		now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestPublishChange_MessageShape(t *testing.T) {
	writer := &capturingWriter{}
	producer := newTestProducer(writer)

	err := producer.PublishChange(context.Background(), testPatent(3), []string{"title", "claims"})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "10000001", string(msg.Key))

	var event ChangeEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, EventTypePatentUpdated, event.EventType)
	assert.Equal(t, "10000001", event.PatentID)
	assert.Equal(t, patent.SourcePatentsView, event.Source)
	assert.Equal(t, 3, event.Version)
	assert.Equal(t, []string{"title", "claims"}, event.FieldsChanged)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), event.Timestamp)
}

func TestPublishChange_CreateEventType(t *testing.T) {
	writer := &capturingWriter{}
	producer := newTestProducer(writer)

	require.NoError(t, producer.PublishChange(context.Background(), testPatent(1), []string{"all"}))

	var event ChangeEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, EventTypePatentCreated, event.EventType)
}

func TestPublishChange_Headers(t *testing.T) {
	writer := &capturingWriter{}
	producer := newTestProducer(writer)

	require.NoError(t, producer.PublishChange(context.Background(), testPatent(2), []string{"abstract"}))

	headers := map[string]string{}
	for _, h := range writer.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventTypePatentUpdated, headers["event_type"])
	assert.Equal(t, schemaVersion, headers["schema_version"])
}

func TestPublishChange_WriteFailure(t *testing.T) {
	writer := &capturingWriter{err: assert.AnError}
	producer := newTestProducer(writer)

	err := producer.PublishChange(context.Background(), testPatent(2), []string{"title"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}

func TestProducer_Close(t *testing.T) {
	writer := &capturingWriter{}
	producer := newTestProducer(writer)

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}
