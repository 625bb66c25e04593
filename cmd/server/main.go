package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"academy_app_echo/internal/config"
	"academy_app_echo/internal/gateway"
	"academy_app_echo/internal/handlers"
	appmw "academy_app_echo/internal/middleware"
	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
	"academy_app_echo/internal/services"
	"academy_app_echo/pkg/logger"
)

func main() {
	// Load environment variables; missing .env means system env only
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalw("failed to run database migrations", "error", err)
	}

	repos := repository.New(db)

	// The dispatcher reads the registry on every event; put redis in
	// front of it when available.
	if cfg.RedisURL != "" {
		cache, err := services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warnw("redis unavailable, subscription reads fall through to the database", "error", err)
		} else {
			log.Info("redis connection established")
			repos.Subscriptions = services.NewCachedSubscriptionStore(repos.Subscriptions, cache, cfg.SubscriptionCacheTTL)
		}
	}

	gateways := gateway.Registry{}
	if cfg.MercadoPago.AccessToken != "" {
		gateways[models.PaymentGatewayMercadoPago] = gateway.NewMercadoPago(
			cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken, cfg.MercadoPago.WebhookSecret)
	}
	if cfg.Midtrans.ServerKey != "" {
		gateways[models.PaymentGatewayMidtrans] = gateway.NewMidtrans(
			cfg.Midtrans.ServerKey, cfg.Midtrans.IsProduction)
	}
	if len(gateways) == 0 {
		log.Warn("no payment gateway configured, checkout and callbacks will reject all requests")
	}

	dispatcher := services.NewWebhookDispatcher(repos.Subscriptions, repos.DeliveryLogs, cfg.DispatchTimeout, log)
	reconciler := services.NewReconciliationService(gateways, repos, dispatcher, log)
	payments := services.NewPaymentService(db, gateways, repos, cfg.AppURL, log)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = appmw.JSONErrorHandler(log)

	// Middleware
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(reconciler)
	subscriptionHandler := handlers.NewSubscriptionHandler(repos.Subscriptions, repos.DeliveryLogs)
	paymentHandler := handlers.NewPaymentHandler(payments)

	// Gateway callbacks
	e.POST("/webhooks/:gateway", webhookHandler.HandleGatewayCallback)

	// Admin surface
	admin := e.Group("/admin", appmw.RequireAPIKey(cfg.AdminAPIKey))
	admin.GET("/webhooks", subscriptionHandler.List)
	admin.POST("/webhooks", subscriptionHandler.Create)
	admin.GET("/webhooks/:id", subscriptionHandler.Get)
	admin.PUT("/webhooks/:id", subscriptionHandler.Update)
	admin.DELETE("/webhooks/:id", subscriptionHandler.Delete)
	admin.GET("/webhooks/:id/deliveries", subscriptionHandler.ListDeliveries)

	// Platform surface
	user := e.Group("", appmw.RequireUser())
	user.POST("/courses/:id/checkout", paymentHandler.Checkout)
	user.GET("/payments/:id", paymentHandler.GetPayment)

	// Operational endpoints
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	log.Infow("server starting", "port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
