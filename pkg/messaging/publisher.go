// Package messaging defines the events the service emits and the publishers that deliver them.
package messaging

import (
	"context"
	"log/slog"
)

// StockChangedSubject is the subject every committed stock transaction is published on.
const StockChangedSubject = "inventory.stock.changed"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the log instead of a broker. It is used when NATS is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "publisher")}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := event.Payload()
	if err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "Event published", "subject", event.Subject(), "payload", string(payload))
	return nil
}
