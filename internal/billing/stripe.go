package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...)
	// Used to verify webhook signatures from Stripe
	WebhookSecret string
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrInvalidAPIKey
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_")
}

// StripeProvider implements Provider using Stripe hosted Checkout Sessions.
type StripeProvider struct {
	config StripeConfig
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stripe.Key = config.APIKey
	return &StripeProvider{config: config}, nil
}

// CreateCheckoutSession registers a hosted checkout session from the
// assembled line items.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	if len(params.LineItems) == 0 {
		return nil, ErrEmptyLineItems
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(params.LineItems))
	for i, item := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.Name),
			Metadata: item.Metadata,
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(params.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
				ProductData: productData,
			},
		}
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx
	for k, v := range params.Metadata {
		sessionParams.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		sessionParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	sess, err := session.New(sessionParams)
	if err != nil {
		return nil, wrapStripeErr(err, "failed to create checkout session")
	}

	return &CheckoutSession{
		ID:               sess.ID,
		URL:              sess.URL,
		AmountTotalCents: sess.AmountTotal,
		Currency:         string(sess.Currency),
		Metadata:         sess.Metadata,
		CreatedAt:        time.Unix(sess.Created, 0),
	}, nil
}

// VerifyWebhookEvent verifies the Stripe signature and decodes the event.
// Events other than checkout.session.completed come back as EventIgnored so
// the handler can acknowledge them without acting.
func (p *StripeProvider) VerifyWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.config.WebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrInvalidWebhookSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return &WebhookEvent{ID: event.ID, Type: EventIgnored}, nil
	}

	var sess stripe.CheckoutSession
	if err := sess.UnmarshalJSON(event.Data.Raw); err != nil {
		return nil, wrapStripeErr(err, "failed to decode checkout session event")
	}

	return &WebhookEvent{
		ID:        event.ID,
		Type:      EventCheckoutCompleted,
		SessionID: sess.ID,
		Metadata:  sess.Metadata,
	}, nil
}

// wrapStripeErr converts a Stripe SDK error into a StripeError, keeping the
// request id for debugging.
func wrapStripeErr(err error, message string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &StripeError{
			Message:       message,
			Code:          string(stripeErr.Code),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
	}
	return &StripeError{Message: message, OriginalError: err}
}
