package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	readRetryMin = 200 * time.Millisecond
	readRetryMax = 10 * time.Second
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Printer consumes invoice events and writes each receipt to out.
type Printer struct {
	reader MessageReader
	out    io.Writer
	log    zerolog.Logger

	retryMin time.Duration
	retryMax time.Duration
}

func NewPrinter(topic, groupID string, out io.Writer, log zerolog.Logger, brokers ...string) *Printer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewPrinterWithReader(reader, out, log)
}

func NewPrinterWithReader(r MessageReader, out io.Writer, log zerolog.Logger) *Printer {
	return &Printer{reader: r, out: out, log: log, retryMin: readRetryMin, retryMax: readRetryMax}
}

// Run prints receipts until ctx is cancelled. Consecutive read failures
// back off exponentially up to retryMax.
func (p *Printer) Run(ctx context.Context) {
	var delay time.Duration
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.processMessage(ctx); err == nil {
			delay = 0
			continue
		}

		if delay == 0 {
			delay = p.retryMin
		} else {
			delay = min(delay*2, p.retryMax)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Printer) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error().Err(err).Msg("error closing kafka reader")
	}
}

// processMessage handles one event. Only read failures are returned; a bad
// event is logged and skipped.
func (p *Printer) processMessage(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		p.log.Error().Err(err).Msg("error reading message")
		return err
	}

	if eventType(m) != EventTypeInvoiceCreated {
		p.log.Debug().Str("key", string(m.Key)).Msg("skipping non-invoice event")
		return nil
	}

	var snapshot domain.OrderSnapshot
	if err := json.Unmarshal(m.Value, &snapshot); err != nil {
		p.log.Error().Err(err).Str("key", string(m.Key)).Msg("error parsing invoice event")
		return nil
	}

	fmt.Fprintf(p.out, "----- checkout %s -----\n", snapshot.CheckoutID)
	if err := NewView(snapshot).Render(p.out); err != nil {
		p.log.Error().Err(err).Str("checkout_id", snapshot.CheckoutID).Msg("failed to print receipt")
		return nil
	}
	fmt.Fprintln(p.out)
	p.log.Info().Str("checkout_id", snapshot.CheckoutID).Msg("receipt printed")
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
