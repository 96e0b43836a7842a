package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes change events to the configured topic and implements
// patent.ChangePublisher.
type Producer struct {
	writer writerInterface
	topic  string
	logger logging.Logger
	now    func() time.Time
}

var _ patent.ChangePublisher = (*Producer)(nil)

// NewProducer creates a Producer writing to cfg.Topic.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
		RequiredAcks: kafkago.RequireOne,
	}
	return &Producer{
		writer: writer,
		topic:  cfg.Topic,
		logger: logger.Named("kafka"),
		now:    time.Now,
	}
}

// PublishChange emits one change event for a freshly written patent.
// Callers treat failures as non-fatal; the returned error exists so they
// can decide how loudly to log.
func (p *Producer) PublishChange(ctx context.Context, pat *patent.Patent, fieldsChanged []string) error {
	event := NewChangeEvent(pat, fieldsChanged, p.now())
	msg, err := event.encode()
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to publish change event").
			WithDetail(pat.PatentID)
	}

	p.logger.Debug("published change event",
		logging.String("patent_id", pat.PatentID),
		logging.String("event_type", event.EventType),
		logging.Int("version", event.Version))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to close kafka writer")
	}
	return nil
}
