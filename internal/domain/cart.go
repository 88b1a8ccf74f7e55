package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be a positive integer"}
)

// CartService provides business logic for shopping cart operations.
//
// The cart holds at most one row per (user, product) pair; AddItem relies on
// an atomic database upsert so concurrent adds for the same pair can neither
// duplicate the row nor lose an increment.
type CartService interface {
	// AddItem puts one unit of the product into the user's cart, or
	// increments the existing row's quantity by exactly 1.
	AddItem(ctx context.Context, userID, productID int32) (*CartItem, error)

	// UpdateQuantity sets the absolute quantity for an existing cart item.
	// Fails with ENOTFOUND if the pair has no row, EINVALID if quantity < 1.
	UpdateQuantity(ctx context.Context, userID, productID, quantity int32) (*CartItem, error)

	// RemoveItem deletes the cart item for the pair.
	// Fails with ENOTFOUND if the pair has no row; never a silent no-op.
	RemoveItem(ctx context.Context, userID, productID int32) error

	// Clear deletes all cart items for the user. An already-empty cart is
	// not an error.
	Clear(ctx context.Context, userID int32) error

	// GetCartWithTotal returns the user's cart lines with product details
	// and the summed total cost. Lines whose product was deleted out-of-band
	// are excluded and logged, never an error.
	GetCartWithTotal(ctx context.Context, userID int32) (*CartSummary, error)
}

// CartItem is one row of the cart_items table.
type CartItem struct {
	ID        int32              `json:"id"`
	UserID    int32              `json:"user_id"`
	ProductID int32              `json:"product_id"`
	Quantity  int32              `json:"quantity"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

// CartLine is a cart item joined with its product for display and checkout.
type CartLine struct {
	CartItem
	ProductName string      `json:"product_name"`
	UnitCost    int32       `json:"unit_cost"`
	ImageURL    pgtype.Text `json:"image_url"`
	LineCost    int64       `json:"line_cost"`
}

// CartSummary aggregates a user's cart with the computed total.
type CartSummary struct {
	UserID    int32      `json:"user_id"`
	Items     []CartLine `json:"items"`
	TotalCost int64      `json:"total_cost"`
	ItemCount int32      `json:"item_count"`
}
