package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher publishes payment-completion events for the fulfillment worker.
type Publisher interface {
	PublishOrderPaid(ctx context.Context, event OrderPaid) error
}

// NATSPublisher publishes events to a NATS subject.
type NATSPublisher struct {
	conn *nats.Conn
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher creates a publisher over an established NATS connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// PublishOrderPaid serializes the event and publishes it to SubjectOrderPaid.
func (p *NATSPublisher) PublishOrderPaid(ctx context.Context, event OrderPaid) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order paid event: %w", err)
	}
	if err := p.conn.Publish(SubjectOrderPaid, data); err != nil {
		return fmt.Errorf("publish order paid event: %w", err)
	}
	return nil
}

// LocalPublisher dispatches events directly to a worker in-process.
// Used when NATS is disabled; the webhook handler keeps one code path.
type LocalPublisher struct {
	worker *Worker
}

var _ Publisher = (*LocalPublisher)(nil)

// NewLocalPublisher creates an in-process publisher bound to a worker.
func NewLocalPublisher(worker *Worker) *LocalPublisher {
	return &LocalPublisher{worker: worker}
}

// PublishOrderPaid hands the event straight to the worker.
func (p *LocalPublisher) PublishOrderPaid(ctx context.Context, event OrderPaid) error {
	return p.worker.HandleOrderPaid(ctx, event)
}
