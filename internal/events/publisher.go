package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers outcome events. Implementations must be safe for
// concurrent use; delivery is best-effort from the caller's point of view.
type Publisher interface {
	ReconciliationCompleted(ctx context.Context, event ReconciliationCompleted) error
	ConflictResolved(ctx context.Context, event ConflictResolved) error
	RecordDeleted(ctx context.Context, event RecordDeleted) error
	Close() error
}

// KafkaPublisher lazily manages one writer per topic.
type KafkaPublisher struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher for the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// ReconciliationCompleted publishes a pass summary keyed by pass id.
func (p *KafkaPublisher) ReconciliationCompleted(ctx context.Context, event ReconciliationCompleted) error {
	return p.publish(ctx, TopicReconciliation, "reconciliation.completed", event.PassID, event)
}

// ConflictResolved publishes a resolution keyed by the surviving record.
func (p *KafkaPublisher) ConflictResolved(ctx context.Context, event ConflictResolved) error {
	return p.publish(ctx, TopicRecords, "conflict.resolved", event.SurvivorID, event)
}

// RecordDeleted publishes an explicit user delete keyed by record id.
func (p *KafkaPublisher) RecordDeleted(ctx context.Context, event RecordDeleted) error {
	return p.publish(ctx, TopicRecords, "record.deleted", event.RecordID, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	return p.writerForTopic(topic).WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

// NoopPublisher discards events; used in tests and broker-less local runs.
type NoopPublisher struct{}

func (NoopPublisher) ReconciliationCompleted(context.Context, ReconciliationCompleted) error {
	return nil
}
func (NoopPublisher) ConflictResolved(context.Context, ConflictResolved) error { return nil }

func (NoopPublisher) RecordDeleted(context.Context, RecordDeleted) error { return nil }

func (NoopPublisher) Close() error { return nil }
