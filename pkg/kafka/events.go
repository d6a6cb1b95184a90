package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leaflet/extraction"

	"github.com/segmentio/kafka-go"
)

// EventPublisher writes extraction events to a single topic.
type EventPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewEventPublisher checks that broker is reachable and returns a publisher for topic.
func NewEventPublisher(ctx context.Context, broker, topic string) (*EventPublisher, error) {
	if broker == "" {
		return nil, fmt.Errorf("kafka broker cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(dialCtx, "tcp", broker)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}
	conn.Close()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Balancer:               &kafka.LeastBytes{},
		MaxAttempts:            3,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}

	return &EventPublisher{writer: writer, topic: topic}, nil
}

// Publish sends ev keyed by its source so model and fallback events keep their order.
func (p *EventPublisher) Publish(ctx context.Context, ev extraction.Event) error {
	msg, err := message(p.topic, ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish message to topic %s: %w", p.topic, err)
	}
	return nil
}

func message(topic string, ev extraction.Event) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(ev.Source),
		Value: value,
		Time:  ev.ExtractedAt,
	}, nil
}

func (p *EventPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
