package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mossfern/verdant/internal/domain"
)

// validate checks the tagged constraints on input param structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// CatalogService implements domain.CatalogService using PostgreSQL.
type CatalogService struct {
	pool *pgxpool.Pool
}

// Compile-time check that CatalogService implements domain.CatalogService.
var _ domain.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new PostgreSQL-backed catalog service.
func NewCatalogService(pool *pgxpool.Pool) *CatalogService {
	return &CatalogService{pool: pool}
}

const productColumns = `p.id, p.name, p.cost, p.description, p.category_id, p.brand_id, p.image_url, p.average_review_score, c.name`

// searchQuery builds the filtered product query. Filters are independently
// optional; tag filtering joins the bridge table, restricts to the candidate
// tag ids, and keeps only products whose distinct matched-tag count equals
// the requested count (AND semantics).
func searchQuery(filter domain.ProductFilter) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT " + productColumns + " FROM products p JOIN categories c ON c.id = p.category_id")

	if len(filter.TagIDs) > 0 {
		args = append(args, filter.TagIDs)
		fmt.Fprintf(&sb, " JOIN products_tags pt ON pt.product_id = p.id AND pt.tag_id = ANY($%d)", len(args))
	}

	var conds []string
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conds = append(conds, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}
	if filter.MinCost != nil {
		args = append(args, *filter.MinCost)
		conds = append(conds, fmt.Sprintf("p.cost >= $%d", len(args)))
	}
	if filter.MaxCost != nil {
		args = append(args, *filter.MaxCost)
		conds = append(conds, fmt.Sprintf("p.cost <= $%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if len(filter.TagIDs) > 0 {
		args = append(args, len(filter.TagIDs))
		fmt.Fprintf(&sb, " GROUP BY p.id, c.name HAVING COUNT(DISTINCT pt.tag_id) = $%d", len(args))
	}

	sb.WriteString(" ORDER BY p.id")
	return sb.String(), args
}

// SearchProducts returns products matching the filter with category and tags
// attached. An empty filter returns the whole catalog.
func (s *CatalogService) SearchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if err := validate.Struct(filter); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "catalog.search", "invalid search filter")
	}
	if filter.MinCost != nil && filter.MaxCost != nil && *filter.MinCost > *filter.MaxCost {
		return nil, domain.Invalid("catalog.search", "min_cost must not exceed max_cost")
	}

	query, args := searchQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, "catalog.search", "failed to search products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, "catalog.search", "failed to scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.search", "failed to read products")
	}

	if err := s.attachTags(ctx, products); err != nil {
		return nil, domain.Internal(err, "catalog.search", "failed to load product tags")
	}
	return products, nil
}

// GetProduct retrieves a single product with category and tags.
func (s *CatalogService) GetProduct(ctx context.Context, id int32) (*domain.Product, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products p JOIN categories c ON c.id = p.category_id WHERE p.id = $1", id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.get", "failed to get product")
	}

	products := []domain.Product{p}
	if err := s.attachTags(ctx, products); err != nil {
		return nil, domain.Internal(err, "product.get", "failed to load product tags")
	}
	return &products[0], nil
}

// CreateProduct inserts a product and its tag join rows in one transaction.
func (s *CatalogService) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "product.create", "invalid product")
	}

	brandID := params.BrandID
	if brandID == 0 {
		brandID = domain.DefaultBrandID
	}

	var id int32
	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO products (name, cost, description, category_id, brand_id, image_url)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			 RETURNING id`,
			params.Name, params.Cost, params.Description, params.CategoryID, brandID, params.ImageURL,
		).Scan(&id)
		if err != nil {
			return err
		}
		return replaceProductTags(ctx, tx, id, params.TagIDs)
	})
	if err != nil {
		return nil, mapProductWriteError(err, "product.create")
	}

	return s.GetProduct(ctx, id)
}

// UpdateProduct merges the given fields onto the existing row and, when
// TagIDs is non-nil, replaces the tag associations in the same transaction.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int32, params domain.UpdateProductParams) (*domain.Product, error) {
	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "product.update", "invalid product")
	}

	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		var existing domain.Product
		err := tx.QueryRow(ctx,
			`SELECT name, cost, description, category_id, brand_id, image_url
			 FROM products WHERE id = $1 FOR UPDATE`, id,
		).Scan(&existing.Name, &existing.Cost, &existing.Description,
			&existing.CategoryID, &existing.BrandID, &existing.ImageURL)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrProductNotFound
			}
			return err
		}

		name := existing.Name
		if params.Name != nil {
			name = *params.Name
		}
		cost := existing.Cost
		if params.Cost != nil {
			cost = *params.Cost
		}
		description := existing.Description
		if params.Description != nil {
			description = *params.Description
		}
		categoryID := existing.CategoryID
		if params.CategoryID != nil {
			categoryID = *params.CategoryID
		}
		brandID := existing.BrandID
		if params.BrandID != nil {
			brandID = *params.BrandID
		}
		imageURL := existing.ImageURL
		if params.ImageURL != nil {
			imageURL = pgtype.Text{String: *params.ImageURL, Valid: *params.ImageURL != ""}
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET name = $2, cost = $3, description = $4, category_id = $5, brand_id = $6, image_url = $7
			 WHERE id = $1`,
			id, name, cost, description, categoryID, brandID, imageURL)
		if err != nil {
			return err
		}

		if params.TagIDs != nil {
			return replaceProductTags(ctx, tx, id, params.TagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, mapProductWriteError(err, "product.update")
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product; cart items, reviews, and tag join rows go
// with it via the FK cascades.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int32) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return domain.Internal(err, "product.delete", "failed to delete product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_categories", "failed to list categories")
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Category])
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_categories", "failed to read categories")
	}
	return categories, nil
}

// ListTags returns all tags.
func (s *CatalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM tags ORDER BY id")
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_tags", "failed to list tags")
	}
	tags, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Tag])
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_tags", "failed to read tags")
	}
	return tags, nil
}

// ListBrands returns all brands.
func (s *CatalogService) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM brands ORDER BY id")
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_brands", "failed to list brands")
	}
	brands, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Brand])
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_brands", "failed to read brands")
	}
	return brands, nil
}

// replaceProductTags deletes all tag associations for the product and
// re-inserts one join row per tag id. Runs inside the caller's transaction.
func replaceProductTags(ctx context.Context, tx pgx.Tx, productID int32, tagIDs []int32) error {
	if _, err := tx.Exec(ctx, "DELETE FROM products_tags WHERE product_id = $1", productID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO products_tags (product_id, tag_id) VALUES ($1, $2)", productID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// attachTags loads the tags for every product in the slice with a single
// query against the bridge table.
func (s *CatalogService) attachTags(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int32, len(products))
	byID := make(map[int32]*domain.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = &products[i]
	}

	rows, err := s.pool.Query(ctx,
		`SELECT pt.product_id, t.id, t.name
		 FROM products_tags pt
		 JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.product_id = ANY($1)
		 ORDER BY pt.product_id, t.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var productID int32
		var tag domain.Tag
		if err := rows.Scan(&productID, &tag.ID, &tag.Name); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.Tags = append(p.Tags, tag)
		}
	}
	return rows.Err()
}

// scanProduct scans one row of productColumns.
func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Cost, &p.Description, &p.CategoryID,
		&p.BrandID, &p.ImageURL, &p.AverageReviewScore, &p.Category.Name)
	if err != nil {
		return domain.Product{}, err
	}
	p.Category.ID = p.CategoryID
	return p, nil
}

// mapProductWriteError translates store-level failures from product writes
// into domain errors. Missing category/brand/tag references surface as
// conflicts; everything else is a generic write failure.
func mapProductWriteError(err error, op string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if isForeignKeyViolation(err, "category_id") {
		return domain.Conflict(op, "category does not exist")
	}
	if isForeignKeyViolation(err, "brand_id") {
		return domain.Conflict(op, "brand does not exist")
	}
	if isForeignKeyViolation(err, "tag_id") {
		return domain.Conflict(op, "tag does not exist")
	}
	return domain.Internal(err, op, "failed to write product")
}
