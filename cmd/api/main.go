package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/apparel-storefront/internal/catalog"
	"github.com/fairyhunter13/apparel-storefront/internal/config"
	"github.com/fairyhunter13/apparel-storefront/internal/handler"
	"github.com/fairyhunter13/apparel-storefront/internal/payment"
	"github.com/fairyhunter13/apparel-storefront/internal/ratelimit"
	"github.com/fairyhunter13/apparel-storefront/internal/repository"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
	"github.com/fairyhunter13/apparel-storefront/internal/validator"
	"github.com/fairyhunter13/apparel-storefront/pkg/database"
	"github.com/fairyhunter13/apparel-storefront/pkg/email"
	"github.com/fairyhunter13/apparel-storefront/pkg/printful"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)
	warnMissingSecrets(cfg)

	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, database.PoolOptions{
		DSN:        cfg.DB.DSN(),
		MaxConns:   cfg.DB.MaxConns,
		MinConns:   cfg.DB.MinConns,
		MaxRetries: 5,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Rate limiters are shared through Redis when configured, per instance otherwise
	promoLimiter, returnLimiter, rdb := newLimiters(cfg.RateLimit)

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Apparel Storefront",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ProxyHeader:  cfg.Server.ProxyHeader,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	validate := validator.New()

	// Promo codes and analytics (layered architecture)
	promoRepo := repository.NewPromoCodeRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)
	promoService := service.NewPromoService(pool, promoRepo, analyticsRepo, promoLimiter)

	// External services
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
	mailer := email.NewClient(cfg.Email.BaseURL, cfg.Email.APIKey)
	returnService := service.NewReturnService(mailer, returnLimiter, cfg.Email.From, cfg.Email.SupportEmail)

	// Catalog cache with its periodic refresher
	vendor := printful.NewClient(cfg.Printful.BaseURL, cfg.Printful.APIKey, cfg.Printful.StoreID)
	products := catalog.New(vendor, catalog.Options{
		FreshFor:        cfg.Catalog.FreshFor,
		RefreshInterval: cfg.Catalog.RefreshInterval,
		PageSize:        cfg.Catalog.PageSize,
		CustomMarker:    cfg.Catalog.CustomMarker,
	})
	products.Start()

	// Health and metrics
	healthHandler := handler.NewHealthHandler(pool)
	if rdb != nil {
		healthHandler.With("redis", handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Storefront routes
	promoHandler := handler.NewPromoHandler(promoService, validate)
	checkoutHandler := handler.NewCheckoutHandler(gateway, validate)
	webhookHandler := handler.NewWebhookHandler(gateway, promoService)
	catalogHandler := handler.NewCatalogHandler(products)
	returnHandler := handler.NewReturnHandler(returnService, validate)

	app.Post("/validate-promo", promoHandler.ValidatePromo)
	app.Post("/create-payment-intent", checkoutHandler.CreatePaymentIntent)
	app.Post("/webhooks/payment", webhookHandler.HandlePayment)
	app.Get("/catalog/products", catalogHandler.ListProducts)
	app.Get("/catalog/products/:id", catalogHandler.GetProduct)
	app.Post("/send-return-request", returnHandler.SendReturnRequest)

	// Admin routes
	if cfg.Admin.APIKey != "" {
		adminHandler := handler.NewAdminHandler(promoService, validate)
		admin := app.Group("/admin", handler.NewAdminAuth(cfg.Admin.APIKey))
		admin.Post("/promo-codes", adminHandler.CreatePromoCode)
		admin.Get("/promo-codes", adminHandler.ListPromoCodes)
		admin.Get("/promo-codes/top", adminHandler.GetTopPromoCodes)
		admin.Get("/promo-codes/:id", adminHandler.GetPromoCode)
		admin.Delete("/promo-codes/:id", adminHandler.DeletePromoCode)
		admin.Get("/promo-codes/:id/stats", adminHandler.GetPromoCodeStats)
	} else {
		log.Warn().Msg("ADMIN_API_KEY not set, admin API disabled")
	}

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("stopping catalog refresher...")
	if err := products.Stop(); err != nil {
		log.Error().Err(err).Msg("catalog refresher stopped with error")
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// newLimiters builds the promo validation and return request limiters.
// The returned client is nil unless Redis is configured.
func newLimiters(cfg config.RateLimitConfig) (promo, returns ratelimit.Limiter, rdb *redis.Client) {
	if cfg.RedisURL == "" {
		return ratelimit.NewSlidingWindow(cfg.PromoLimit, cfg.PromoWindow),
			ratelimit.NewTokenBucket(cfg.ReturnLimit, cfg.ReturnWindow),
			nil
	}

	rdb, err := ratelimit.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	log.Info().Msg("using redis for rate limiting")
	return ratelimit.NewRedis(rdb, "ratelimit:promo:", cfg.PromoLimit, cfg.PromoWindow),
		ratelimit.NewRedis(rdb, "ratelimit:return:", cfg.ReturnLimit, cfg.ReturnWindow),
		rdb
}

func warnMissingSecrets(cfg *config.Config) {
	for name, v := range map[string]string{
		"STRIPE_SECRET_KEY":     cfg.Stripe.SecretKey,
		"STRIPE_WEBHOOK_SECRET": cfg.Stripe.WebhookSecret,
		"PRINTFUL_API_KEY":      cfg.Printful.APIKey,
		"RESEND_API_KEY":        cfg.Email.APIKey,
	} {
		if v == "" {
			log.Warn().Str("variable", name).Msg("not set, dependent endpoints will fail")
		}
	}
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
