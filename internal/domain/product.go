package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// CATALOG DOMAIN ERRORS
// =============================================================================

var (
	ErrProductNotFound  = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrCategoryNotFound = &Error{Code: ENOTFOUND, Message: "Category not found"}
	ErrBrandNotFound    = &Error{Code: ENOTFOUND, Message: "Brand not found"}
)

// DefaultBrandID is the seeded "Default" brand every product falls back to
// when no brand is submitted.
const DefaultBrandID int32 = 1

// CatalogService provides business logic for products and catalog reference
// data (categories, tags, brands).
type CatalogService interface {
	// SearchProducts returns products matching the filter, each with its
	// category and tags attached. An empty filter returns the full catalog.
	SearchProducts(ctx context.Context, filter ProductFilter) ([]Product, error)

	// GetProduct retrieves a single product with category and tags.
	GetProduct(ctx context.Context, id int32) (*Product, error)

	// CreateProduct inserts a product and its tag associations atomically.
	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)

	// UpdateProduct updates a product; if TagIDs is non-nil the tag
	// associations are replaced (delete all, re-insert) in the same
	// transaction as the row update.
	UpdateProduct(ctx context.Context, id int32, params UpdateProductParams) (*Product, error)

	// DeleteProduct removes a product. Cart items and reviews referencing
	// it are removed by the database cascade.
	DeleteProduct(ctx context.Context, id int32) error

	ListCategories(ctx context.Context) ([]Category, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ListBrands(ctx context.Context) ([]Brand, error)
}

// Product is a catalog entry. Cost is in minor currency units (cents).
// AverageReviewScore is derived data, only written by the review transaction.
type Product struct {
	ID                 int32       `json:"id"`
	Name               string      `json:"name"`
	Cost               int32       `json:"cost"`
	Description        string      `json:"description"`
	CategoryID         int32       `json:"category_id"`
	BrandID            int32       `json:"brand_id"`
	ImageURL           pgtype.Text `json:"image_url"`
	AverageReviewScore float64     `json:"average_review_score"`

	Category Category `json:"category"`
	Tags     []Tag    `json:"tags"`
}

// Category is immutable reference data.
type Category struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Tag is reference data, many-to-many with products.
type Tag struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Brand is reference data; id 1 is the seeded "Default" brand.
type Brand struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// ProductFilter holds the independently optional search criteria.
// Tag filtering uses AND semantics: a product qualifies only when it
// carries every listed tag.
type ProductFilter struct {
	Name       string `validate:"omitempty,max=255"`
	MinCost    *int32 `validate:"omitempty,gte=0"`
	MaxCost    *int32 `validate:"omitempty,gte=0"`
	CategoryID *int32 `validate:"omitempty,gt=0"`
	TagIDs     []int32
}

// Empty reports whether no filter criteria were supplied.
func (f ProductFilter) Empty() bool {
	return f.Name == "" && f.MinCost == nil && f.MaxCost == nil &&
		f.CategoryID == nil && len(f.TagIDs) == 0
}

// CreateProductParams contains the fields for creating a product.
// BrandID of zero falls back to the default brand.
type CreateProductParams struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Cost        int32   `json:"cost" validate:"gte=0"`
	Description string  `json:"description"`
	CategoryID  int32   `json:"category_id" validate:"required,gt=0"`
	BrandID     int32   `json:"brand_id" validate:"gte=0"`
	ImageURL    string  `json:"image_url"`
	TagIDs      []int32 `json:"tag_ids"`
}

// UpdateProductParams contains optional fields for updating a product.
// Nil fields are left unchanged. A non-nil TagIDs replaces all tag
// associations, including an empty slice (removes every tag).
type UpdateProductParams struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Cost        *int32  `json:"cost" validate:"omitempty,gte=0"`
	Description *string `json:"description"`
	CategoryID  *int32  `json:"category_id" validate:"omitempty,gt=0"`
	BrandID     *int32  `json:"brand_id" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"image_url"`
	TagIDs      []int32 `json:"tag_ids"`
}
