// Package fulfillment carries the asynchronous hand-off between the payment
// webhook and order fulfillment. The webhook publishes an OrderPaid event;
// a worker consumes it, clears the payer's cart, and leaves a reconciliation
// trail in the logs. Payment-provider invocation stays upstream; this
// package only sees the opaque completion trigger.
package fulfillment

import (
	"time"
)

// SubjectOrderPaid is the NATS subject for payment-completion events.
const SubjectOrderPaid = "verdant.orders.paid"

// QueueFulfillment is the queue group name so multiple workers share the
// subject without double-processing.
const QueueFulfillment = "fulfillment"

// OrderPaid is published once per completed checkout session.
type OrderPaid struct {
	// EventID is the provider's webhook event id, used for log correlation.
	EventID string `json:"event_id"`

	// SessionID is the checkout session that was paid.
	SessionID string `json:"session_id"`

	// UserID is the paying user, recovered from session metadata.
	UserID int32 `json:"user_id"`

	// OccurredAt is when the webhook was accepted.
	OccurredAt time.Time `json:"occurred_at"`
}
