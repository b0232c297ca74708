package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elliotchance/pie/v2"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes audit events keyed by customer id, so one
// customer's records stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(event.CustomerID),
			Value: data,
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write audit events: %w", err)
	}

	slog.Debug("Sent audit events to Kafka",
		slog.Int("count", len(events)),
		slog.Any("record_ids", pie.Map(events, func(e Event) string { return e.Record.ID })),
	)

	return nil
}

func (p *KafkaPublisher) Shutdown() error {
	return p.writer.Close()
}
