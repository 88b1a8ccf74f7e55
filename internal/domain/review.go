package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrDuplicateReview = &Error{Code: ECONFLICT, Message: "You have already reviewed this product"}
	ErrInvalidRating   = &Error{Code: EINVALID, Message: "Rating must be between 1 and 5"}
)

// Rating bounds enforced on review creation.
const (
	MinRating int32 = 1
	MaxRating int32 = 5
)

// ReviewService provides business logic for product reviews.
//
// AddReview and the recomputation of the product's aggregate rating run in a
// single transaction: the average must never reflect a review that failed to
// persist, and a persisted review must never leave a stale average.
type ReviewService interface {
	// AddReview inserts a review and recomputes the product's
	// average_review_score atomically. One review per (product, user);
	// a second attempt fails with ErrDuplicateReview.
	AddReview(ctx context.Context, params AddReviewParams) (*Review, error)

	// ListProductReviews returns all reviews for a product with the
	// reviewer's username attached.
	ListProductReviews(ctx context.Context, productID int32) ([]ProductReview, error)

	// ListUserReviews returns all reviews written by a user with the
	// product name attached.
	ListUserReviews(ctx context.Context, userID int32) ([]UserReview, error)
}

// AddReviewParams contains the fields for creating a review.
type AddReviewParams struct {
	ProductID int32  `validate:"required,gt=0"`
	UserID    int32  `validate:"required,gt=0"`
	Rating    int32  `validate:"gte=1,lte=5"`
	Comment   string `validate:"omitempty,max=2000"`
}

// Review is one row of the reviews table.
type Review struct {
	ID        int32              `json:"id"`
	ProductID int32              `json:"product_id"`
	UserID    int32              `json:"user_id"`
	Rating    int32              `json:"rating"`
	Comment   pgtype.Text        `json:"comment"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

// ProductReview is a review joined with the reviewer's username.
type ProductReview struct {
	Review
	Username string `json:"username"`
}

// UserReview is a review joined with the reviewed product's name.
type UserReview struct {
	Review
	ProductName string `json:"product_name"`
}
