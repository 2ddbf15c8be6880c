package handler

import (
	"checkout-payments/internal/adapter/http/middleware"
	redisStore "checkout-payments/internal/adapter/storage/redis"
	"checkout-payments/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	IntentSvc      ports.PaymentIntentService
	WalletSvc      ports.WalletService
	CardSvc        ports.CardService
	ReconcileSvc   ports.ReconciliationService
	Verifier       ports.WebhookVerifier
	TokenSvc       ports.TokenService             // used only when AuthEnabled
	RateLimitStore *redisStore.RateLimitStore     // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuthEnabled    bool
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1 MB request body limit
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Probes
	r.GET("/health", HealthCheck)
	r.GET("/ready", ReadyCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Webhook deliveries authenticate by signature, so the route stays
	// outside the client group: no rate limiting, no JWT.
	webhookHandler := NewWebhookHandler(deps.Verifier, deps.ReconcileSvc, deps.Logger)
	r.POST("/webhook", webhookHandler.Handle)

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	paymentHandler := NewPaymentHandler(deps.IntentSvc)
	cardHandler := NewCardHandler(deps.CardSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	client := r.Group("")
	if deps.AuthEnabled && deps.TokenSvc != nil {
		client.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	}
	{
		client.POST("/create-payment-intent", rl("payments"), paymentHandler.CreatePaymentIntent)
		client.POST("/create-setup-intent", rl("cards"), paymentHandler.CreateSetupIntent)

		client.GET("/payment-method/:id", rl("cards"), cardHandler.GetPaymentMethod)
		client.POST("/set-default-card", rl("cards"), cardHandler.SetDefaultCard)
		client.GET("/cards/:userId", rl("cards"), cardHandler.ListCards)
		client.POST("/attach-payment-method", rl("cards"), cardHandler.AttachPaymentMethod)
		client.DELETE("/card/:paymentMethodId", rl("cards"), cardHandler.RemoveCard)

		client.POST("/add-money-to-wallet", rl("wallet_topup"), walletHandler.AddMoney)
		client.GET("/wallet/:userId", rl("wallet"), walletHandler.GetWallet)
	}

	return r
}
