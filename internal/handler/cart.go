package handler

import (
	"net/http"

	"github.com/mossfern/verdant/internal/domain"
	"github.com/mossfern/verdant/internal/middleware"
)

// CartHandler handles all cart routes. Every route requires an
// authenticated user.
type CartHandler struct {
	cart domain.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cart domain.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

func requireUser(w http.ResponseWriter, r *http.Request) (int32, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "auth.require", "Authentication required"))
		return 0, false
	}
	return userID, true
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.cart.GetCartWithTotal(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// AddItem handles POST /cart/items
//
// Adding a product already in the cart increments its quantity by one
// rather than creating a second row.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		ProductID int32 `json:"product_id"`
	}
	if err := decodeJSON(r, &body); err != nil || body.ProductID <= 0 {
		ErrorResponse(w, r, domain.Invalid("cart.add", "Invalid product ID"))
		return
	}

	item, err := h.cart.AddItem(r.Context(), userID, body.ProductID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// UpdateQuantity handles PUT /cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	productID, ok := pathID(r, "product_id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("cart.update", "Invalid product ID"))
		return
	}

	var body struct {
		Quantity int32 `json:"quantity"`
	}
	if err := decodeJSON(r, &body); err != nil {
		ErrorResponse(w, r, domain.Invalid("cart.update", "Invalid request body"))
		return
	}

	item, err := h.cart.UpdateQuantity(r.Context(), userID, productID, body.Quantity)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// RemoveItem handles DELETE /cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	productID, ok := pathID(r, "product_id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("cart.remove", "Invalid product ID"))
		return
	}

	if err := h.cart.RemoveItem(r.Context(), userID, productID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.cart.Clear(r.Context(), userID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
