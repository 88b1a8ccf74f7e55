package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossfern/verdant/internal"
	"github.com/mossfern/verdant/internal/billing"
	"github.com/mossfern/verdant/internal/fulfillment"
	"github.com/mossfern/verdant/internal/handler"
	"github.com/mossfern/verdant/internal/handler/webhook"
	"github.com/mossfern/verdant/internal/middleware"
	"github.com/mossfern/verdant/internal/postgres"
	"github.com/mossfern/verdant/internal/router"
	"github.com/mossfern/verdant/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize services
	catalogService := postgres.NewCatalogService(pool)
	cartService := postgres.NewCartService(pool, logger)
	reviewService := postgres.NewReviewService(pool)
	userService := postgres.NewUserService(pool)

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	billingProvider, err := billing.NewStripeProvider(billing.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info("Stripe billing provider initialized")

	// Initialize checkout service
	checkoutService := service.NewCheckoutService(cartService, billingProvider, service.CheckoutConfig{
		Currency:   cfg.Currency,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	})

	// Initialize fulfillment worker and its event transport
	worker := fulfillment.NewWorker(cartService, logger)

	var publisher fulfillment.Publisher
	if cfg.NATS.Enabled {
		logger.Info("Connecting to NATS...", "url", cfg.NATS.URL)
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("NATS connection failed: %w", err)
		}
		defer nc.Close()

		publisher = fulfillment.NewNATSPublisher(nc)
		go func() {
			if err := worker.Run(ctx, nc); err != nil {
				logger.Error("fulfillment worker stopped", "error", err)
			}
		}()
		logger.Info("Fulfillment worker started")
	} else {
		logger.Info("NATS disabled, dispatching fulfillment in-process")
		publisher = fulfillment.NewLocalPublisher(worker)
	}

	// Initialize handlers
	catalogHandler := handler.NewCatalogHandler(catalogService)
	cartHandler := handler.NewCartHandler(cartService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	userHandler := handler.NewUserHandler(userService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	stripeWebhookHandler := webhook.NewStripeHandler(billingProvider, publisher, logger)

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("verdant")

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.Logger(logger),
		middleware.WithUser,
		middleware.WithRequestLogger(logger),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Catalog
	r.Get("/products", catalogHandler.Search)
	r.Get("/products/{id}", catalogHandler.Get)
	r.Post("/products", catalogHandler.Create)
	r.Put("/products/{id}", catalogHandler.Update)
	r.Delete("/products/{id}", catalogHandler.Delete)
	r.Get("/categories", catalogHandler.ListCategories)
	r.Get("/tags", catalogHandler.ListTags)
	r.Get("/brands", catalogHandler.ListBrands)

	// Cart
	r.Get("/cart", cartHandler.View)
	r.Post("/cart/items", cartHandler.AddItem)
	r.Put("/cart/items/{product_id}", cartHandler.UpdateQuantity)
	r.Delete("/cart/items/{product_id}", cartHandler.RemoveItem)
	r.Delete("/cart", cartHandler.Clear)

	// Reviews
	r.Post("/products/{id}/reviews", reviewHandler.Add)
	r.Get("/products/{id}/reviews", reviewHandler.ListForProduct)
	r.Get("/users/{id}/reviews", reviewHandler.ListForUser)

	// Accounts
	r.Post("/users", userHandler.Register)
	r.Post("/login", userHandler.Login)

	// Checkout
	r.Post("/checkout", checkoutHandler.Start)
	r.Post("/webhooks/stripe", stripeWebhookHandler.HandleWebhook)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
