package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-payments/config"
	"checkout-payments/internal/adapter/events"
	httpHandler "checkout-payments/internal/adapter/http/handler"
	pgStorage "checkout-payments/internal/adapter/storage/postgres"
	redisStorage "checkout-payments/internal/adapter/storage/redis"
	stripeAdapter "checkout-payments/internal/adapter/stripe"
	"checkout-payments/internal/core/ports"
	"checkout-payments/internal/service"
	"checkout-payments/pkg/logger"

	stripego "github.com/stripe/stripe-go/v82"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Checkout Payments")

	if cfg.Server.Mode != "debug" && (cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "") {
		log.Fatal().Msg("Stripe credentials are required outside debug mode")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(cfg.Database.DSN(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	walletTxRepo := pgStorage.NewWalletTxRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	seenStore := redisStorage.NewEventSeenStore(rdb)

	// Initialize Stripe adapters
	sc := stripego.NewClient(cfg.Stripe.SecretKey)
	processor := stripeAdapter.NewClient(sc)
	verifier := stripeAdapter.NewVerifier(cfg.Stripe.WebhookSecret)

	// Optional NATS publisher for integration events
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		natsPub, err := events.NewNATSPublisher(cfg.NATS, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer natsPub.Close()
		publisher = natsPub
	}

	// Optional reconciliation audit trail
	var auditSvc ports.AuditService
	if cfg.Audit.Enabled {
		reconLogRepo := pgStorage.NewReconciliationLogRepo(pool)
		auditSvc = service.NewAuditService(reconLogRepo, log)
	}

	// Initialize business services
	customerSvc := service.NewCustomerService(userRepo, processor, log)
	intentSvc := service.NewIntentService(userRepo, customerSvc, processor, cfg.Payments.DefaultCurrency, log)
	walletSvc := service.NewWalletService(
		userRepo,
		cardRepo,
		walletTxRepo,
		customerSvc,
		processor,
		transactor,
		publisher,
		cfg.Payments.DefaultCurrency,
		log,
	)
	cardSvc := service.NewCardService(userRepo, cardRepo, processor, transactor, log)
	reconcileSvc := service.NewReconcileService(
		orderRepo,
		userRepo,
		cardRepo,
		walletTxRepo,
		seenStore,
		transactor,
		processor,
		auditSvc,
		publisher,
		log,
	)

	// Optional bearer-token validation for client routes
	var tokenSvc ports.TokenService
	if cfg.Auth.Enabled {
		if cfg.Auth.Secret == "" {
			log.Fatal().Msg("Auth is enabled but no secret is configured")
		}
		tokenSvc = service.NewJWTTokenService(cfg.Auth.Secret, cfg.Auth.Expiry, cfg.Auth.Issuer)
	}

	// Initialize rate limit store
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.RateLimit.Enabled {
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		IntentSvc:      intentSvc,
		WalletSvc:      walletSvc,
		CardSvc:        cardSvc,
		ReconcileSvc:   reconcileSvc,
		Verifier:       verifier,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuthEnabled:    cfg.Auth.Enabled,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
