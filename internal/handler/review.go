package handler

import (
	"net/http"

	"github.com/mossfern/verdant/internal/domain"
)

// ReviewHandler handles review routes
type ReviewHandler struct {
	reviews domain.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews domain.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Add handles POST /products/{id}/reviews
func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	productID, ok := pathID(r, "id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("review.add", "Invalid product ID"))
		return
	}

	var body struct {
		Rating  int32  `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &body); err != nil {
		ErrorResponse(w, r, domain.Invalid("review.add", "Invalid request body"))
		return
	}

	review, err := h.reviews.AddReview(r.Context(), domain.AddReviewParams{
		ProductID: productID,
		UserID:    userID,
		Rating:    body.Rating,
		Comment:   body.Comment,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// ListForProduct handles GET /products/{id}/reviews
func (h *ReviewHandler) ListForProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("review.list_product", "Invalid product ID"))
		return
	}

	reviews, err := h.reviews.ListProductReviews(r.Context(), productID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// ListForUser handles GET /users/{id}/reviews
func (h *ReviewHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("review.list_user", "Invalid user ID"))
		return
	}

	reviews, err := h.reviews.ListUserReviews(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}
