package fulfillment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mossfern/verdant/internal/domain"
)

// Worker consumes payment-completion events and performs fulfillment: the
// payer's cart is cleared and the event is logged for reconciliation.
type Worker struct {
	cartService domain.CartService
	logger      *slog.Logger

	// HandleTimeout bounds a single event's processing. Defaults to 30s.
	HandleTimeout time.Duration
}

// NewWorker creates a fulfillment worker.
func NewWorker(cartService domain.CartService, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cartService:   cartService,
		logger:        logger,
		HandleTimeout: 30 * time.Second,
	}
}

// Run subscribes to SubjectOrderPaid in the fulfillment queue group and
// processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context, conn *nats.Conn) error {
	sub, err := conn.QueueSubscribe(SubjectOrderPaid, QueueFulfillment, func(msg *nats.Msg) {
		var event OrderPaid
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			w.logger.Error("dropping malformed order paid event", "error", err)
			return
		}

		handleCtx, cancel := context.WithTimeout(ctx, w.HandleTimeout)
		defer cancel()

		if err := w.HandleOrderPaid(handleCtx, event); err != nil {
			w.logger.Error("failed to fulfill order",
				"event_id", event.EventID,
				"session_id", event.SessionID,
				"user_id", event.UserID,
				"error", err)
		}
	})
	if err != nil {
		return err
	}

	w.logger.Info("fulfillment worker started", "subject", SubjectOrderPaid, "queue", QueueFulfillment)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		w.logger.Warn("failed to drain fulfillment subscription", "error", err)
	}
	return ctx.Err()
}

// HandleOrderPaid clears the payer's cart. Clearing is idempotent, so a
// redelivered event is harmless.
func (w *Worker) HandleOrderPaid(ctx context.Context, event OrderPaid) error {
	if err := w.cartService.Clear(ctx, event.UserID); err != nil {
		return err
	}

	w.logger.Info("order fulfilled",
		"event_id", event.EventID,
		"session_id", event.SessionID,
		"user_id", event.UserID,
		"occurred_at", event.OccurredAt)
	return nil
}
