package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful checkout flows without calling the Stripe API.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// VerifyWebhookEventFunc allows customizing webhook verification behavior
	VerifyWebhookEventFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Sessions stores created checkout sessions for retrieval
	Sessions map[string]*CheckoutSession

	// CallLog tracks method calls for test assertions
	CallLog []string
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%d items, %s)", len(params.LineItems), params.Currency))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	if len(params.LineItems) == 0 {
		return nil, ErrEmptyLineItems
	}

	var total int64
	for _, item := range params.LineItems {
		total += item.UnitAmountCents * item.Quantity
	}

	sess := &CheckoutSession{
		ID:               "cs_" + uuid.New().String(),
		URL:              "https://checkout.example.com/pay/" + uuid.New().String(),
		AmountTotalCents: total,
		Currency:         params.Currency,
		Metadata:         params.Metadata,
		CreatedAt:        time.Now(),
	}

	m.Sessions[sess.ID] = sess
	return sess, nil
}

// VerifyWebhookEvent returns a successful checkout event for any payload.
func (m *MockProvider) VerifyWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "VerifyWebhookEvent")

	if m.VerifyWebhookEventFunc != nil {
		return m.VerifyWebhookEventFunc(payload, signature)
	}

	return &WebhookEvent{
		ID:   "evt_" + uuid.New().String(),
		Type: EventCheckoutCompleted,
	}, nil
}
