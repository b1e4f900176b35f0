package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by user id so each user's events stay
// ordered within a partition.
type KafkaPublisher struct {
	topic string

	mu     sync.Mutex
	writer messageWriter
}

// NewKafkaPublisher builds a synchronous writer requiring acks from all replicas.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

func newKafkaPublisherWithWriter(topic string, w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{topic: topic, writer: w}
}

func (p *KafkaPublisher) PublishActivity(ctx context.Context, e ActivityLogged) error {
	value, err := encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.UserID),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.ID)},
		},
	}
	p.mu.Lock()
	w := p.writer
	p.mu.Unlock()
	if w == nil {
		return fmt.Errorf("kafka publisher for %s is closed", p.topic)
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
