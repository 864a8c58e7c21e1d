// Package kafka provides a Kafka-backed eventstream publisher using
// segmentio/kafka-go. Events are keyed by owner id so one user's changes
// stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/eventstream"
)

// DefaultTopic is the topic memory events are published to.
const DefaultTopic = "keepsake.memory.events"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of broker addresses ("host:port").
	Brokers []string

	// Topic defaults to DefaultTopic if empty.
	Topic string
}

// Publisher implements eventstream.Publisher over Kafka.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher. The brokers are not contacted
// until the first publish.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		WriteTimeout: 10 * time.Second,
		// The coordinator publishes best-effort after its local write;
		// a lost event is recoverable by reconciliation, a blocked
		// store path is not.
		RequiredAcks: kafkago.RequireOne,
	}

	logger.Info("kafka event publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{writer: writer, logger: logger}, nil
}

// PublishMemory writes the event to the configured topic, keyed by owner.
func (p *Publisher) PublishMemory(ctx context.Context, event *eventstream.MemoryEvent) error {
	if event == nil {
		return eventstream.ErrNilMemoryEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", event.EventID, err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.OwnerID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing event %s: %w", event.EventID, err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
