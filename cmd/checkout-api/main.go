package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/app"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/eventlog"
	eventlogsqlite "github.com/jcmexdev/storefront-checkout/internal/checkout/eventlog/sqlite"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/infra/httpx"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/infra/mongodb"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/infra/stripex"
	"github.com/jcmexdev/storefront-checkout/internal/pkg/cache"
	"github.com/jcmexdev/storefront-checkout/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "checkout-api"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := mongodb.Connect(ctx,
		getEnv("MONGO_URI", "mongodb://localhost:27017"),
		getEnv("MONGO_DB", "storefront"),
	)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			slog.Error("mongo disconnect error", "error", err)
		}
	}()

	productRepo := mongodb.NewProductRepository(db)
	saleRepo := mongodb.NewSaleRepository(db)
	if err := saleRepo.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to ensure sale indexes", "error", err)
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(getEnv("REDIS_ADDR", "localhost:6379"), "checkout")
	catalog := app.NewCatalogService(productRepo, redisCache)

	secretKey := os.Getenv("STRIPE_SECRET_KEY")
	signingSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secretKey == "" || signingSecret == "" {
		slog.Error("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required")
		os.Exit(1)
	}
	provider := stripex.NewProvider(secretKey)
	verifier := stripex.NewVerifier(signingSecret)

	// Webhook audit log is best-effort: the service runs without it.
	var events eventlog.Repository
	if eventRepo, err := eventlogsqlite.Open(getEnv("EVENT_LOG_PATH", "./data/webhook-events.db")); err != nil {
		slog.Warn("webhook event log disabled", "error", err)
	} else {
		defer eventRepo.Close()
		events = eventRepo
	}

	service := app.NewCheckoutService(catalog, saleRepo, provider, catalog, app.Config{
		Production: getEnv("APP_ENV", "development") == "production",
	})

	handler := httpx.NewHandler(service, verifier, events)
	router := httpx.NewRouter(handler)

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("checkout API running", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
