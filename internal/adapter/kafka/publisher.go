package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// Publisher produces delivered advisories to a Kafka topic for downstream
// analytics. It implements dispatch.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the advisory topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// advisoryEvent is the wire envelope for a published advisory.
type advisoryEvent struct {
	FarmerID string          `json:"farmer_id"`
	Advisory domain.Advisory `json:"advisory"`
}

// Publish serializes the advisory and writes it keyed by farmer ID, so a
// farmer's advisories stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, farmerID string, adv domain.Advisory) error {
	data, err := json.Marshal(advisoryEvent{FarmerID: farmerID, Advisory: adv})
	if err != nil {
		return fmt.Errorf("serialize advisory event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(farmerID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "advisory_type", Value: []byte(adv.Type)},
			{Key: "severity", Value: []byte(adv.Severity)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
