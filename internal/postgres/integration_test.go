//go:build integration
// +build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossfern/verdant/internal"
	"github.com/mossfern/verdant/internal/domain"
)

// testPool connects to the database named by DATABASE_URL in .env.test and
// runs migrations. Tests create their own users and products so they can run
// against a shared database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env.test")
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, sqlDB.Ping(), "database unreachable")
	require.NoError(t, internal.RunMigrations(sqlDB))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool) int32 {
	t.Helper()

	var id int32
	email := fmt.Sprintf("test-%s@example.com", uuid.New().String())
	err := pool.QueryRow(context.Background(),
		"INSERT INTO users (username, email, password_hash) VALUES ($1, $2, 'x') RETURNING id",
		"tester", email).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", id)
	})
	return id
}

func createTestProduct(t *testing.T, pool *pgxpool.Pool, name string, cost int32, tagIDs ...int32) int32 {
	t.Helper()

	var id int32
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, cost, category_id, brand_id)
		 VALUES ($1, $2, 1, 1) RETURNING id`, name, cost).Scan(&id)
	require.NoError(t, err)
	for _, tagID := range tagIDs {
		_, err := pool.Exec(context.Background(),
			"INSERT INTO products_tags (product_id, tag_id) VALUES ($1, $2)", id, tagID)
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM products WHERE id = $1", id)
	})
	return id
}

func TestCartAddItem_Upsert(t *testing.T) {
	pool := testPool(t)
	svc := NewCartService(pool, nil)
	ctx := context.Background()

	userID := createTestUser(t, pool)
	productID := createTestProduct(t, pool, "Upsert Tofu", 400)

	first, err := svc.AddItem(ctx, userID, productID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.Quantity)

	second, err := svc.AddItem(ctx, userID, productID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), second.Quantity)
	assert.Equal(t, first.ID, second.ID, "second add must reuse the same row")

	var count int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM cart_items WHERE user_id = $1 AND product_id = $2",
		userID, productID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCartAddItem_ConcurrentAdds(t *testing.T) {
	pool := testPool(t)
	svc := NewCartService(pool, nil)
	ctx := context.Background()

	userID := createTestUser(t, pool)
	productID := createTestProduct(t, pool, "Concurrent Tempeh", 350)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, userID, productID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count, quantity int32
	err := pool.QueryRow(ctx,
		"SELECT COUNT(*), MAX(quantity) FROM cart_items WHERE user_id = $1 AND product_id = $2",
		userID, productID).Scan(&count, &quantity)
	require.NoError(t, err)
	assert.Equal(t, int32(1), count, "concurrent adds must not duplicate the row")
	assert.Equal(t, int32(n), quantity, "no increment may be lost")
}

func TestCartAddItem_UnknownProduct(t *testing.T) {
	pool := testPool(t)
	svc := NewCartService(pool, nil)

	userID := createTestUser(t, pool)

	_, err := svc.AddItem(context.Background(), userID, 999999999)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCartUpdateQuantity_AbsentPair(t *testing.T) {
	pool := testPool(t)
	svc := NewCartService(pool, nil)

	userID := createTestUser(t, pool)
	productID := createTestProduct(t, pool, "Never Added", 100)

	_, err := svc.UpdateQuantity(context.Background(), userID, productID, 3)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	err = svc.RemoveItem(context.Background(), userID, productID)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)
}

func TestCartGetWithTotal(t *testing.T) {
	pool := testPool(t)
	svc := NewCartService(pool, nil)
	ctx := context.Background()

	userID := createTestUser(t, pool)
	oat := createTestProduct(t, pool, "Oat Milk", 250)
	seitan := createTestProduct(t, pool, "Seitan Strips", 250)

	_, err := svc.AddItem(ctx, userID, oat)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, seitan)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, seitan)
	require.NoError(t, err)

	summary, err := svc.GetCartWithTotal(ctx, userID)
	require.NoError(t, err)

	assert.Len(t, summary.Items, 2)
	assert.Equal(t, int64(750), summary.TotalCost)
	assert.Equal(t, int32(3), summary.ItemCount)

	require.NoError(t, svc.Clear(ctx, userID))
	// Clearing again is not an error
	require.NoError(t, svc.Clear(ctx, userID))

	summary, err = svc.GetCartWithTotal(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.TotalCost)
}

func TestSearchProducts_TagFilterRequiresAllTags(t *testing.T) {
	pool := testPool(t)
	svc := NewCatalogService(pool)
	ctx := context.Background()

	// Tags 1 and 2 are Vegan and Gluten-Free from the seed data
	marker := uuid.New().String()[:8]
	both := createTestProduct(t, pool, "Both "+marker, 300, 1, 2)
	createTestProduct(t, pool, "OnlyVegan "+marker, 300, 1)
	createTestProduct(t, pool, "Untagged "+marker, 300)

	products, err := svc.SearchProducts(ctx, domain.ProductFilter{
		Name:   marker,
		TagIDs: []int32{1, 2},
	})
	require.NoError(t, err)

	require.Len(t, products, 1, "only the product carrying every requested tag matches")
	assert.Equal(t, both, products[0].ID)
	assert.Len(t, products[0].Tags, 2)
}

func TestSearchProducts_CostRange(t *testing.T) {
	pool := testPool(t)
	svc := NewCatalogService(pool)
	ctx := context.Background()

	marker := uuid.New().String()[:8]
	createTestProduct(t, pool, "Cheap "+marker, 100)
	mid := createTestProduct(t, pool, "Mid "+marker, 500)
	createTestProduct(t, pool, "Spendy "+marker, 900)

	min, max := int32(200), int32(800)
	products, err := svc.SearchProducts(ctx, domain.ProductFilter{
		Name:    marker,
		MinCost: &min,
		MaxCost: &max,
	})
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, mid, products[0].ID)
}

func TestSearchProducts_InvertedCostRange(t *testing.T) {
	pool := testPool(t)
	svc := NewCatalogService(pool)

	min, max := int32(800), int32(200)
	_, err := svc.SearchProducts(context.Background(), domain.ProductFilter{
		MinCost: &min,
		MaxCost: &max,
	})
	assert.True(t, domain.IsCode(err, domain.EINVALID))
}

func TestAddReview_RecomputesAverage(t *testing.T) {
	pool := testPool(t)
	svc := NewReviewService(pool)
	ctx := context.Background()

	productID := createTestProduct(t, pool, "Reviewed Tofu", 400)
	alice := createTestUser(t, pool)
	bob := createTestUser(t, pool)
	carol := createTestUser(t, pool)

	for _, r := range []struct {
		user   int32
		rating int32
	}{{alice, 4}, {bob, 5}, {carol, 3}} {
		_, err := svc.AddReview(ctx, domain.AddReviewParams{
			ProductID: productID,
			UserID:    r.user,
			Rating:    r.rating,
		})
		require.NoError(t, err)
	}

	var avg float64
	err := pool.QueryRow(ctx,
		"SELECT average_review_score FROM products WHERE id = $1", productID).Scan(&avg)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 1e-9)
}

func TestAddReview_DuplicateLeavesAverageUntouched(t *testing.T) {
	pool := testPool(t)
	svc := NewReviewService(pool)
	ctx := context.Background()

	productID := createTestProduct(t, pool, "Once Reviewed", 400)
	userID := createTestUser(t, pool)

	_, err := svc.AddReview(ctx, domain.AddReviewParams{
		ProductID: productID, UserID: userID, Rating: 5,
	})
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, domain.AddReviewParams{
		ProductID: productID, UserID: userID, Rating: 1, Comment: "changed my mind",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	var avg float64
	var count int
	err = pool.QueryRow(ctx,
		"SELECT average_review_score, (SELECT COUNT(*) FROM reviews r WHERE r.product_id = products.id) FROM products WHERE id = $1",
		productID).Scan(&avg, &count)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, avg, 1e-9, "rejected insert must not move the average")
	assert.Equal(t, 1, count)
}

func TestAddReview_RatingBounds(t *testing.T) {
	pool := testPool(t)
	svc := NewReviewService(pool)
	ctx := context.Background()

	productID := createTestProduct(t, pool, "Bounds Check", 400)
	userID := createTestUser(t, pool)

	for _, rating := range []int32{0, 6, -1} {
		_, err := svc.AddReview(ctx, domain.AddReviewParams{
			ProductID: productID, UserID: userID, Rating: rating,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidRating, "rating %d", rating)
	}
}

func TestAddReview_UnknownProduct(t *testing.T) {
	pool := testPool(t)
	svc := NewReviewService(pool)

	userID := createTestUser(t, pool)

	_, err := svc.AddReview(context.Background(), domain.AddReviewParams{
		ProductID: 999999999, UserID: userID, Rating: 4,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	pool := testPool(t)
	svc := NewUserService(pool)
	ctx := context.Background()

	email := fmt.Sprintf("auth-%s@example.com", uuid.New().String())
	user, err := svc.CreateUser(ctx, domain.CreateUserParams{
		Username: "authuser",
		Email:    email,
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)
	})

	// Duplicate email is rejected
	_, err = svc.CreateUser(ctx, domain.CreateUserParams{
		Username: "other",
		Email:    email,
		Password: "another password",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	authed, err := svc.Authenticate(ctx, email, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, email, "wrong password")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)
}

func TestProductLifecycle(t *testing.T) {
	pool := testPool(t)
	svc := NewCatalogService(pool)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, domain.CreateProductParams{
		Name:       "Lifecycle Burger " + uuid.New().String()[:8],
		Cost:       650,
		CategoryID: 1,
		TagIDs:     []int32{1, 3},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM products WHERE id = $1", created.ID)
	})

	assert.Equal(t, domain.DefaultBrandID, created.BrandID, "brand defaults when omitted")
	assert.Len(t, created.Tags, 2)

	newCost := int32(700)
	updated, err := svc.UpdateProduct(ctx, created.ID, domain.UpdateProductParams{
		Cost:   &newCost,
		TagIDs: []int32{2},
	})
	require.NoError(t, err)
	assert.Equal(t, newCost, updated.Cost)
	assert.Equal(t, created.Name, updated.Name, "omitted fields stay untouched")
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, int32(2), updated.Tags[0].ID)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	err = svc.DeleteProduct(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDeleteProduct_CleansUpCartsAndReviews(t *testing.T) {
	pool := testPool(t)
	catalog := NewCatalogService(pool)
	cart := NewCartService(pool, nil)
	reviews := NewReviewService(pool)
	ctx := context.Background()

	userID := createTestUser(t, pool)
	productID := createTestProduct(t, pool, "Doomed Product", 300)

	_, err := cart.AddItem(ctx, userID, productID)
	require.NoError(t, err)
	_, err = reviews.AddReview(ctx, domain.AddReviewParams{
		ProductID: productID, UserID: userID, Rating: 4,
	})
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteProduct(ctx, productID))

	var cartRows, reviewRows int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM cart_items WHERE product_id = $1", productID).Scan(&cartRows))
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM reviews WHERE product_id = $1", productID).Scan(&reviewRows))
	assert.Zero(t, cartRows)
	assert.Zero(t, reviewRows)
}

func TestDeleteTag_CleansUpProductAssociations(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	var tagID int32
	require.NoError(t, pool.QueryRow(ctx,
		"INSERT INTO tags (name) VALUES ($1) RETURNING id", "tag-"+uuid.NewString()).Scan(&tagID))
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM tags WHERE id = $1", tagID)
	})

	productID := createTestProduct(t, pool, "Tagged Product", 300, tagID)

	_, err := pool.Exec(ctx, "DELETE FROM tags WHERE id = $1", tagID)
	require.NoError(t, err)

	var joinRows int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM products_tags WHERE tag_id = $1", tagID).Scan(&joinRows))
	assert.Zero(t, joinRows)

	catalog := NewCatalogService(pool)
	_, err = catalog.GetProduct(ctx, productID)
	assert.NoError(t, err)
}

// Exercised indirectly everywhere, but pin the timeout behavior once.
func TestQueriesHonorContext(t *testing.T) {
	pool := testPool(t)
	svc := NewCatalogService(pool)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := svc.ListCategories(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || domain.IsCode(err, domain.EINTERNAL))
}
