package postgres

import (
	"strings"
	"testing"

	"github.com/mossfern/verdant/internal/domain"
)

func int32Ptr(v int32) *int32 { return &v }

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		name         string
		filter       domain.ProductFilter
		wantContains []string
		wantMissing  []string
		wantArgs     int
	}{
		{
			name:        "empty filter returns whole catalog",
			filter:      domain.ProductFilter{},
			wantMissing: []string{"WHERE", "HAVING", "products_tags"},
			wantArgs:    0,
		},
		{
			name:         "name filter uses ILIKE",
			filter:       domain.ProductFilter{Name: "milk"},
			wantContains: []string{"p.name ILIKE $1"},
			wantArgs:     1,
		},
		{
			name:         "cost range",
			filter:       domain.ProductFilter{MinCost: int32Ptr(200), MaxCost: int32Ptr(800)},
			wantContains: []string{"p.cost >= $1", "p.cost <= $2"},
			wantArgs:     2,
		},
		{
			name:         "category filter",
			filter:       domain.ProductFilter{CategoryID: int32Ptr(3)},
			wantContains: []string{"p.category_id = $1"},
			wantArgs:     1,
		},
		{
			name:   "tag filter requires every tag",
			filter: domain.ProductFilter{TagIDs: []int32{1, 2}},
			wantContains: []string{
				"JOIN products_tags pt ON pt.product_id = p.id AND pt.tag_id = ANY($1)",
				"GROUP BY p.id, c.name HAVING COUNT(DISTINCT pt.tag_id) = $2",
			},
			wantArgs: 2,
		},
		{
			name: "all filters combine with AND",
			filter: domain.ProductFilter{
				Name:       "tofu",
				MinCost:    int32Ptr(100),
				MaxCost:    int32Ptr(500),
				CategoryID: int32Ptr(1),
				TagIDs:     []int32{1, 2, 4},
			},
			wantContains: []string{
				"pt.tag_id = ANY($1)",
				"p.name ILIKE $2",
				"p.cost >= $3",
				"p.cost <= $4",
				"p.category_id = $5",
				"HAVING COUNT(DISTINCT pt.tag_id) = $6",
			},
			wantArgs: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := searchQuery(tt.filter)

			for _, want := range tt.wantContains {
				if !strings.Contains(query, want) {
					t.Errorf("query missing %q:\n%s", want, query)
				}
			}
			for _, missing := range tt.wantMissing {
				if strings.Contains(query, missing) {
					t.Errorf("query should not contain %q:\n%s", missing, query)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
			if !strings.HasSuffix(query, "ORDER BY p.id") {
				t.Errorf("query must order by product id:\n%s", query)
			}
		})
	}
}

func TestSearchQuery_NamePatternIsParameterized(t *testing.T) {
	query, args := searchQuery(domain.ProductFilter{Name: "50%' OR '1'='1"})

	if strings.Contains(query, "50%") {
		t.Errorf("name value leaked into query text:\n%s", query)
	}
	if len(args) != 1 {
		t.Fatalf("args = %d, want 1", len(args))
	}
	if args[0] != "%50%' OR '1'='1%" {
		t.Errorf("pattern arg = %q", args[0])
	}
}
