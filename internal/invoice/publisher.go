package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/segmentio/kafka-go"
)

const EventTypeInvoiceCreated = "invoice.created"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends completed-order snapshots to receipt printers.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w)
}

func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w, timeout: 5 * time.Second}
}

func (p *Publisher) Publish(ctx context.Context, snapshot domain.OrderSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(snapshot.CheckoutID), // checkout_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeInvoiceCreated)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write invoice event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
