package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mossfern/verdant/internal/domain"
)

// CatalogHandler handles product, category, tag, and brand routes
type CatalogHandler struct {
	catalog domain.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog domain.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Search handles GET /products
//
// Query parameters: name, min_cost, max_cost, category_id, and tags as a
// comma-separated list of tag IDs. All filters combine with AND; a product
// matches the tags filter only when it carries every listed tag.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	products, err := h.catalog.SearchProducts(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{Name: q.Get("name")}

	parse := func(key string) (*int32, error) {
		raw := q.Get(key)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, domain.Invalid("catalog.search", "Invalid "+key+" parameter")
		}
		v32 := int32(v)
		return &v32, nil
	}

	var err error
	if filter.MinCost, err = parse("min_cost"); err != nil {
		return filter, err
	}
	if filter.MaxCost, err = parse("max_cost"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = parse("category_id"); err != nil {
		return filter, err
	}

	if raw := q.Get("tags"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
			if err != nil || id <= 0 {
				return filter, domain.Invalid("catalog.search", "Invalid tags parameter")
			}
			filter.TagIDs = append(filter.TagIDs, int32(id))
		}
	}

	return filter, nil
}

// Get handles GET /products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("catalog.get", "Invalid product ID"))
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /products
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateProductParams
	if err := decodeJSON(r, &params); err != nil {
		ErrorResponse(w, r, domain.Invalid("catalog.create", "Invalid request body"))
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("catalog.update", "Invalid product ID"))
		return
	}

	var params domain.UpdateProductParams
	if err := decodeJSON(r, &params); err != nil {
		ErrorResponse(w, r, domain.Invalid("catalog.update", "Invalid request body"))
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, params)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ErrorResponse(w, r, domain.Invalid("catalog.delete", "Invalid product ID"))
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// ListTags handles GET /tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// ListBrands handles GET /brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.ListBrands(r.Context())
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brands": brands})
}
