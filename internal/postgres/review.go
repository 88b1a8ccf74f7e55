package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mossfern/verdant/internal/domain"
)

// ReviewService implements domain.ReviewService using PostgreSQL.
type ReviewService struct {
	pool *pgxpool.Pool
}

var _ domain.ReviewService = (*ReviewService)(nil)

// NewReviewService creates a new PostgreSQL-backed review service.
func NewReviewService(pool *pgxpool.Pool) *ReviewService {
	return &ReviewService{pool: pool}
}

// AddReview inserts the review and recomputes the product's aggregate rating
// in one transaction. Either both writes commit or neither does: the average
// never reflects a review that failed to persist, and a persisted review
// never leaves a stale average.
func (s *ReviewService) AddReview(ctx context.Context, params domain.AddReviewParams) (*domain.Review, error) {
	if params.Rating < domain.MinRating || params.Rating > domain.MaxRating {
		return nil, domain.ErrInvalidRating
	}
	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "review.add", "invalid review")
	}

	var review domain.Review
	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO reviews (product_id, user_id, rating, comment)
			 VALUES ($1, $2, $3, NULLIF($4, ''))
			 RETURNING id, product_id, user_id, rating, comment, created_at`,
			params.ProductID, params.UserID, params.Rating, params.Comment,
		).Scan(&review.ID, &review.ProductID, &review.UserID, &review.Rating,
			&review.Comment, &review.CreatedAt)
		if err != nil {
			if isUniqueViolation(err, "") {
				return domain.ErrDuplicateReview
			}
			if isForeignKeyViolation(err, "product_id") {
				return domain.ErrProductNotFound
			}
			if isForeignKeyViolation(err, "user_id") {
				return domain.ErrUserNotFound
			}
			return err
		}

		// Arithmetic mean over all ratings for the product, including the
		// row inserted above (visible inside this transaction).
		var avg float64
		err = tx.QueryRow(ctx,
			"SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id = $1",
			params.ProductID,
		).Scan(&avg)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"UPDATE products SET average_review_score = $2 WHERE id = $1",
			params.ProductID, avg)
		return err
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.Internal(err, "review.add", "failed to add review")
	}
	return &review, nil
}

// ListProductReviews returns all reviews for a product, newest first, with
// the reviewer's username attached.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID int32) ([]domain.ProductReview, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at, u.username
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.product_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`, productID)
	if err != nil {
		return nil, domain.Internal(err, "review.list_for_product", "failed to list reviews")
	}
	defer rows.Close()

	var reviews []domain.ProductReview
	for rows.Next() {
		var pr domain.ProductReview
		err := rows.Scan(&pr.ID, &pr.ProductID, &pr.UserID, &pr.Rating,
			&pr.Comment, &pr.CreatedAt, &pr.Username)
		if err != nil {
			return nil, domain.Internal(err, "review.list_for_product", "failed to scan review")
		}
		reviews = append(reviews, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "review.list_for_product", "failed to read reviews")
	}
	return reviews, nil
}

// ListUserReviews returns all reviews written by a user with the product
// name attached.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID int32) ([]domain.UserReview, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at, p.name
		 FROM reviews r
		 JOIN products p ON p.id = r.product_id
		 WHERE r.user_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, domain.Internal(err, "review.list_for_user", "failed to list reviews")
	}
	defer rows.Close()

	var reviews []domain.UserReview
	for rows.Next() {
		var ur domain.UserReview
		err := rows.Scan(&ur.ID, &ur.ProductID, &ur.UserID, &ur.Rating,
			&ur.Comment, &ur.CreatedAt, &ur.ProductName)
		if err != nil {
			return nil, domain.Internal(err, "review.list_for_user", "failed to scan review")
		}
		reviews = append(reviews, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "review.list_for_user", "failed to read reviews")
	}
	return reviews, nil
}
