package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mossfern/verdant/internal/domain"
)

// CartService implements domain.CartService using PostgreSQL.
//
// The cart_items table carries UNIQUE(user_id, product_id), so AddItem is a
// single atomic upsert. There is no read-then-write window anywhere in the
// cart path.
type CartService struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ domain.CartService = (*CartService)(nil)

// NewCartService creates a new PostgreSQL-backed cart service.
func NewCartService(pool *pgxpool.Pool, logger *slog.Logger) *CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{pool: pool, logger: logger}
}

// AddItem inserts a quantity-1 row for the (user, product) pair, or bumps the
// existing row's quantity by exactly 1. Concurrent adds for the same pair
// serialize on the row inside the upsert.
func (s *CartService) AddItem(ctx context.Context, userID, productID int32) (*domain.CartItem, error) {
	var item domain.CartItem
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = now()
		 RETURNING id, user_id, product_id, quantity, created_at, updated_at`,
		userID, productID,
	).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err, "product_id") {
			return nil, domain.ErrProductNotFound
		}
		if isForeignKeyViolation(err, "user_id") {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err, "cart.add_item", "failed to add item to cart")
	}
	return &item, nil
}

// UpdateQuantity sets the absolute quantity for an existing cart item.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID, quantity int32) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var item domain.CartItem
	err := s.pool.QueryRow(ctx,
		`UPDATE cart_items
		 SET quantity = $3, updated_at = now()
		 WHERE user_id = $1 AND product_id = $2
		 RETURNING id, user_id, product_id, quantity, created_at, updated_at`,
		userID, productID, quantity,
	).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, domain.Internal(err, "cart.update_quantity", "failed to update cart item")
	}
	return &item, nil
}

// RemoveItem deletes the cart item for the pair. A missing pair is an error,
// never a silent no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int32) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return domain.Internal(err, "cart.remove_item", "failed to remove cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// Clear deletes all cart items for the user. Clearing an empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, userID int32) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return domain.Internal(err, "cart.clear", "failed to clear cart")
	}
	return nil
}

// GetCartWithTotal returns the user's cart lines with product details plus
// the summed total cost. A line whose product disappeared out-of-band is
// excluded and logged rather than failing the whole read; the FK cascade
// makes that window small but not zero.
func (s *CartService) GetCartWithTotal(ctx context.Context, userID int32) (*domain.CartSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		        p.name, p.cost, p.image_url
		 FROM cart_items ci
		 LEFT JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.id`, userID)
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}
	defer rows.Close()

	summary := &domain.CartSummary{UserID: userID, Items: []domain.CartLine{}}
	for rows.Next() {
		var line domain.CartLine
		var name *string
		var cost *int32
		err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity,
			&line.CreatedAt, &line.UpdatedAt, &name, &cost, &line.ImageURL)
		if err != nil {
			return nil, domain.Internal(err, "cart.get", "failed to scan cart line")
		}

		if name == nil || cost == nil {
			s.logger.Warn("excluding cart line with missing product",
				slog.Int("user_id", int(userID)),
				slog.Int("product_id", int(line.ProductID)))
			continue
		}

		line.ProductName = *name
		line.UnitCost = *cost
		line.LineCost = int64(*cost) * int64(line.Quantity)
		summary.Items = append(summary.Items, line)
		summary.TotalCost += line.LineCost
		summary.ItemCount += line.Quantity
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to read cart")
	}
	return summary, nil
}
