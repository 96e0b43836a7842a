// Package kafka publishes patent change events to the message bus.
// Publishing is best effort: a broker outage never fails the write path
// that produced the change.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/pkg/errors"
)

// Event types carried on the change topic.
const (
	EventTypePatentCreated = "patent.created"
	EventTypePatentUpdated = "patent.updated"
)

const schemaVersion = "1.0"

// ChangeEvent describes one persisted patent mutation.  FieldsChanged
// lists the top-level fields the upsert altered; a create lists the
// sentinel value recorded in the patent's change history.
type ChangeEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	PatentID      string    `json:"patent_id"`
	Source        string    `json:"source"`
	Version       int       `json:"version"`
	FieldsChanged []string  `json:"fields_changed"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewChangeEvent builds the event for a patent that was just written.
// Version 1 means the write created the document.
func NewChangeEvent(p *patent.Patent, fieldsChanged []string, now time.Time) ChangeEvent {
	eventType := EventTypePatentUpdated
	if p.Metadata.Version == 1 {
		eventType = EventTypePatentCreated
	}
	return ChangeEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: schemaVersion,
		PatentID:      p.PatentID,
		Source:        p.Source,
		Version:       p.Metadata.Version,
		FieldsChanged: fieldsChanged,
		Timestamp:     now.UTC(),
	}
}

// encode renders the event as a Kafka message keyed by patent id, so all
// events for one patent land on the same partition in order.
func (e ChangeEvent) encode() (kafkago.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, errors.Wrap(err, errors.ErrCodeSerialization,
			"failed to encode change event").WithDetail(e.PatentID)
	}
	return kafkago.Message{
		Key:   []byte(e.PatentID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "schema_version", Value: []byte(e.SchemaVersion)},
		},
	}, nil
}
