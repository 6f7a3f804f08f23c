// Package routes defines the API routing configuration.
// It builds the dependency graph (repositories, provider adapters,
// services, handlers) and binds it to HTTP routes.
package routes

import (
	"premscales/internal/config"
	"premscales/internal/handlers"
	"premscales/internal/middleware"
	"premscales/internal/models"
	"premscales/internal/providers"
	"premscales/internal/repositories"
	"premscales/internal/services/account"
	"premscales/internal/services/disbursement"
	"premscales/internal/services/idempotency"
	"premscales/internal/services/notification"
	"premscales/internal/services/payment"
	"premscales/internal/services/reconciliation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Repositories
	paymentRepo := repositories.NewPaymentRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	// Provider token cache: Redis when available, in-process otherwise.
	var tokens providers.TokenCache = providers.NewMemoryTokenCache()
	if repositories.CacheService != nil {
		tokens = providers.NewRedisTokenCache(repositories.CacheService.Client())
	}

	registry := buildRegistry(tokens)

	// Status-change sink: published to Redis when available, logged otherwise.
	var sink notification.Sink = notification.NewLogSink()
	if repositories.CacheService != nil {
		sink = notification.NewRedisSink(
			repositories.CacheService.Client(),
			config.GetEnv("NOTIFICATION_CHANNEL", "payments.status"),
		)
	}

	var paymentCache payment.PaymentCache
	var reconCache reconciliation.PaymentCache
	if repositories.CacheService != nil {
		paymentCache = repositories.CacheService
		reconCache = repositories.CacheService
	}

	accounts := account.NewOpenDirectory()
	guard := idempotency.NewGuard(paymentRepo)

	reconConfig := reconciliation.DefaultConfig()
	reconConfig.PendingTTL = config.GetDurationEnv("PENDING_TTL", reconConfig.PendingTTL)
	reconConfig.SweepMinAge = config.GetDurationEnv("SWEEP_MIN_AGE", reconConfig.SweepMinAge)
	reconConfig.SweepBatchSize = config.GetIntEnv("SWEEP_BATCH_SIZE", reconConfig.SweepBatchSize)

	// Services
	paymentService := payment.NewService(paymentRepo, guard, registry, accounts, paymentCache)
	reconService := reconciliation.NewService(paymentRepo, registry, sink, reconCache, reconConfig)
	disbursementService := disbursement.NewService(transactionRepo, registry, accounts)

	// Handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reconHandler := handlers.NewReconciliationHandler(reconService)
	webhookHandler := handlers.NewWebhookHandler(reconService)
	disbursementHandler := handlers.NewDisbursementHandler(disbursementService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Provider callbacks authenticate by signature, not bearer token.
	api.Post("/webhooks/payments", webhookHandler.HandleProviderWebhook)

	payments := api.Group("/payments", middleware.Auth())
	payments.Post("/", middleware.RequirePermission(models.PermissionPaymentWrite), paymentHandler.InitiatePayment)
	payments.Get("/", middleware.RequirePermission(models.PermissionPaymentRead), paymentHandler.ListPayments)
	payments.Get("/:reference", middleware.RequirePermission(models.PermissionPaymentRead), paymentHandler.GetPayment)
	payments.Post("/:reference/poll", middleware.RequirePermission(models.PermissionPaymentRead), reconHandler.PollPayment)
	payments.Post("/:reference/cancel", middleware.RequirePermission(models.PermissionPaymentWrite), reconHandler.CancelPayment)
	payments.Post("/:reference/refund", middleware.RequirePermission(models.PermissionWriteAdmin), reconHandler.RefundPayment)

	disbursements := api.Group("/disbursements", middleware.Auth())
	disbursements.Post("/", middleware.RequirePermission(models.PermissionPayoutWrite), disbursementHandler.CreateDisbursement)
	disbursements.Get("/:reference", middleware.RequirePermission(models.PermissionTransactionRead), disbursementHandler.GetDisbursement)

	api.Get("/users/:userID/disbursements", middleware.Auth(),
		middleware.RequirePermission(models.PermissionTransactionRead), disbursementHandler.ListDisbursements)

	api.Post("/reconcile/sweep", middleware.Auth(),
		middleware.RequirePermission(models.PermissionReconcileSweep), reconHandler.SweepPending)
}

// buildRegistry wires every configured provider adapter. An adapter with no
// credentials is still registered; its calls fail at the provider, not here.
func buildRegistry(tokens providers.TokenCache) *providers.Registry {
	registry := providers.NewRegistry()

	registry.Register(models.ChannelMobileMoney, models.NetworkMTN, providers.NewMTNAdapter(providers.MTNConfig{
		BaseURL:         config.GetEnv("MTN_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
		SubscriptionKey: config.GetEnv("MTN_SUBSCRIPTION_KEY", ""),
		APIUser:         config.GetEnv("MTN_API_USER", ""),
		APIKey:          config.GetEnv("MTN_API_KEY", ""),
		TargetEnv:       config.GetEnv("MTN_TARGET_ENV", "sandbox"),
		CallbackURL:     config.GetEnv("MTN_CALLBACK_URL", ""),
		WebhookSecret:   config.GetEnv("MTN_WEBHOOK_SECRET", ""),
	}, tokens))

	registry.Register(models.ChannelMobileMoney, models.NetworkAirtel, providers.NewAirtelAdapter(providers.AirtelConfig{
		BaseURL:       config.GetEnv("AIRTEL_BASE_URL", "https://openapiuat.airtel.africa"),
		ClientID:      config.GetEnv("AIRTEL_CLIENT_ID", ""),
		ClientSecret:  config.GetEnv("AIRTEL_CLIENT_SECRET", ""),
		WebhookSecret: config.GetEnv("AIRTEL_WEBHOOK_SECRET", ""),
	}, tokens))

	registry.Register(models.ChannelCard, "", providers.NewCardAdapter(providers.CardConfig{
		SecretKey:     config.GetEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret: config.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	}))

	return registry
}
