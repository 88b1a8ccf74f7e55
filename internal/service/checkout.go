package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/mossfern/verdant/internal/billing"
	"github.com/mossfern/verdant/internal/domain"
)

// Checkout-specific errors
var (
	ErrCartEmpty = domain.Errorf(domain.EINVALID, "", "Cart is empty")
)

// CheckoutService provides business logic for checkout operations.
type CheckoutService interface {
	// BuildLineItems reads the current cart and emits a provider-agnostic,
	// order-preserving line-item list matching the cart snapshot at call
	// time. Pure transformation; no persistence.
	BuildLineItems(ctx context.Context, userID int32) ([]billing.LineItem, error)

	// StartCheckout assembles line items and registers a hosted checkout
	// session with the billing provider. The cart is not locked: a cart
	// mutated between assembly and provider submission is an accepted
	// eventual-consistency gap.
	StartCheckout(ctx context.Context, userID int32) (*billing.CheckoutSession, error)
}

// CheckoutConfig carries the provider-facing knobs for checkout sessions.
type CheckoutConfig struct {
	// Currency code (ISO 4217 lowercase), e.g. "usd", "sgd".
	Currency string

	// SuccessURL and CancelURL for the hosted payment flow.
	SuccessURL string
	CancelURL  string
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	cartService     domain.CartService
	billingProvider billing.Provider
	config          CheckoutConfig
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(cartService domain.CartService, billingProvider billing.Provider, config CheckoutConfig) CheckoutService {
	return &checkoutService{
		cartService:     cartService,
		billingProvider: billingProvider,
		config:          config,
	}
}

// BuildLineItems maps each cart line to a line item carrying product name,
// unit cost in minor currency units, quantity, optional image reference, and
// metadata linking back to product_id/quantity for later reconciliation.
// Cart Engine errors propagate unchanged.
func (s *checkoutService) BuildLineItems(ctx context.Context, userID int32) ([]billing.LineItem, error) {
	summary, err := s.cartService.GetCartWithTotal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, ErrCartEmpty
	}

	lineItems := make([]billing.LineItem, len(summary.Items))
	for i, line := range summary.Items {
		item := billing.LineItem{
			Name:            line.ProductName,
			UnitAmountCents: int64(line.UnitCost),
			Quantity:        int64(line.Quantity),
			Metadata: map[string]string{
				"product_id": strconv.FormatInt(int64(line.ProductID), 10),
				"quantity":   strconv.FormatInt(int64(line.Quantity), 10),
			},
		}
		if line.ImageURL.Valid {
			item.ImageURL = line.ImageURL.String
		}
		lineItems[i] = item
	}

	return lineItems, nil
}

// StartCheckout registers a hosted checkout session for the user's cart.
func (s *checkoutService) StartCheckout(ctx context.Context, userID int32) (*billing.CheckoutSession, error) {
	lineItems, err := s.BuildLineItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess, err := s.billingProvider.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		LineItems:  lineItems,
		Currency:   s.config.Currency,
		SuccessURL: s.config.SuccessURL,
		CancelURL:  s.config.CancelURL,
		Metadata: map[string]string{
			"user_id": strconv.FormatInt(int64(userID), 10),
		},
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, "checkout.start", "failed to create checkout session")
	}
	return sess, nil
}
