// Package webhook handles inbound payment provider callbacks.
package webhook

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mossfern/verdant/internal/billing"
	"github.com/mossfern/verdant/internal/domain"
	"github.com/mossfern/verdant/internal/fulfillment"
	"github.com/mossfern/verdant/internal/handler"
)

// maxPayloadBytes bounds the webhook body read. Stripe events are small;
// anything larger is not a legitimate event.
const maxPayloadBytes = 64 * 1024

// StripeHandler handles Stripe webhook events
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger checkout.session.completed
type StripeHandler struct {
	provider  billing.Provider
	publisher fulfillment.Publisher
	logger    *slog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(provider billing.Provider, publisher fulfillment.Publisher, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{
		provider:  provider,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleWebhook processes incoming Stripe webhook events. Completed
// checkout sessions are turned into OrderPaid events for the fulfillment
// worker; everything else is acknowledged and ignored.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Error("webhook payload read failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Missing signature"))
		return
	}

	event, err := h.provider.VerifyWebhookEvent(payload, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "webhook.stripe", "Invalid signature"))
		return
	}

	if event.Type != billing.EventCheckoutCompleted {
		h.logger.Debug("ignoring webhook event", "type", event.Type, "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, err := strconv.ParseInt(event.Metadata["user_id"], 10, 32)
	if err != nil || userID <= 0 {
		// Session created outside this app. Acknowledge so Stripe stops retrying.
		h.logger.Warn("checkout session missing user_id metadata",
			"event_id", event.ID,
			"session_id", event.SessionID,
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	eventID := event.ID
	if eventID == "" {
		eventID = uuid.New().String()
	}

	paid := fulfillment.OrderPaid{
		EventID:    eventID,
		SessionID:  event.SessionID,
		UserID:     int32(userID),
		OccurredAt: time.Now().UTC(),
	}

	if err := h.publisher.PublishOrderPaid(r.Context(), paid); err != nil {
		// Non-2xx makes Stripe redeliver, which retries the publish.
		h.logger.Error("failed to publish order paid event",
			"event_id", event.ID,
			"session_id", event.SessionID,
			"error", err,
		)
		handler.ErrorResponse(w, r, domain.Internal(err, "webhook.stripe", "failed to dispatch fulfillment"))
		return
	}

	h.logger.Info("checkout completed",
		"event_id", event.ID,
		"session_id", event.SessionID,
		"user_id", userID,
	)
	w.WriteHeader(http.StatusOK)
}
