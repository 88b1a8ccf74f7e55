package handler

import (
	"net/http"

	"github.com/mossfern/verdant/internal/service"
)

// CheckoutHandler handles checkout session creation
type CheckoutHandler struct {
	checkout service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Start handles POST /checkout
//
// Builds payment line items from the caller's cart and creates a hosted
// checkout session. The response carries the session ID and redirect URL.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	session, err := h.checkout.StartCheckout(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}
