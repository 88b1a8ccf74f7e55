package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreateCheckoutSession registers a hosted checkout session for the
	// given line items and returns its id and redirect URL.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// VerifyWebhookEvent verifies that a webhook request is authentic and
	// decodes it into a provider-agnostic event.
	VerifyWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// LineItem is one entry in a checkout payload: product, quantity, and unit
// price in minor currency units. Metadata links back to the cart snapshot
// (product_id, quantity) for later reconciliation.
type LineItem struct {
	// Name is the product name shown to the customer.
	Name string

	// UnitAmountCents is the per-unit price in smallest currency unit.
	UnitAmountCents int64

	// Quantity of this line item.
	Quantity int64

	// ImageURL is an optional product image reference.
	ImageURL string

	// Metadata for reconciliation (always includes product_id and quantity).
	Metadata map[string]string
}

// CreateCheckoutSessionParams contains parameters for creating a checkout
// session.
type CreateCheckoutSessionParams struct {
	// LineItems is the order-preserving snapshot of the cart.
	LineItems []LineItem

	// Currency code (ISO 4217 lowercase) - e.g., "usd", "sgd"
	Currency string

	// SuccessURL and CancelURL are where the provider redirects after the
	// hosted flow completes or aborts.
	SuccessURL string
	CancelURL  string

	// Metadata for filtering and reporting (always includes user_id).
	Metadata map[string]string

	// IdempotencyKey prevents duplicate sessions for the same checkout
	// attempt.
	IdempotencyKey string
}

// CheckoutSession represents a created hosted checkout session.
type CheckoutSession struct {
	// ID is the provider's session id (cs_... for Stripe).
	ID string

	// URL is the hosted payment page to redirect the customer to.
	URL string

	// AmountTotalCents is the total the provider will charge.
	AmountTotalCents int64

	// Currency code of the session.
	Currency string

	// Metadata passed during creation.
	Metadata map[string]string

	// CreatedAt is when the session was created.
	CreatedAt time.Time
}

// Webhook event types surfaced to the application. Everything else the
// provider sends is ignored.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventIgnored           = "ignored"
)

// WebhookEvent is a provider-agnostic payment event. The application treats
// it as an opaque fulfillment trigger; the payload carries just enough to
// find the paying user and the session.
type WebhookEvent struct {
	// ID is the provider's event id.
	ID string

	// Type is one of the Event* constants.
	Type string

	// SessionID is the checkout session the event refers to.
	SessionID string

	// Metadata from the originating session (includes user_id).
	Metadata map[string]string
}
