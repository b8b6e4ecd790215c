package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shipbook/config"
	"shipbook/cron"
	"shipbook/database"
	"shipbook/database/repository"
	"shipbook/handlers"
	"shipbook/middleware"
	"shipbook/routes"
	"shipbook/services/booking"
	"shipbook/services/notification"
	"shipbook/services/payment"
	"shipbook/services/pricing"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	db := database.DB()

	var redisClient *redis.Client
	if strings.EqualFold(cfg.RateLimitBackend, "redis") {
		redisClient = utils.GetLimiterClient()
	}

	// repositories.
	bookingStore := repository.NewMongoBookingRepo(db)
	packageStore := repository.NewMongoPackageRepo(db)
	recipientStore := repository.NewMongoRecipientRepo(db)
	ledger := repository.NewMongoWebhookEventRepo(db)
	invoices := repository.NewMongoInvoiceRepo(db)

	// notifications.
	var dispatchers notification.Fanout
	if cfg.NotificationsAMQPEnabled {
		dispatchers = append(dispatchers, notification.NewAMQPPublisher(cfg.RabbitMQURL, logger))
	}
	if cfg.NotificationsFCMEnabled {
		utils.FirebaseInit()
		dispatchers = append(dispatchers, notification.NewFCMDispatcher(utils.FCMClient))
	}

	// services.
	engine := pricing.NewEngine(cfg.Pricing)
	bookingService := booking.NewBookingService(bookingStore, packageStore, recipientStore, engine, cfg.Currency, logger)

	provider := payment.NewStripeProvider(cfg.StripeSecretKey)
	machine := &payment.StateMachine{
		Bookings: bookingStore,
		Packages: packageStore,
		Invoices: invoices,
		Notifier: dispatchers,
		Logger:   logger,
	}
	processor := payment.NewProcessor(ledger, bookingStore, machine, logger)
	reconciler := payment.NewReconciler(bookingStore, provider, machine, logger)
	payments := payment.NewPayments(bookingStore, provider, logger)

	// background jobs.
	worker := cron.InitPaymentWorker(&cron.PaymentJobs{
		Ledger:     ledger,
		Bookings:   bookingStore,
		Processor:  processor,
		Reconciler: reconciler,
		Logger:     logger.Named("jobs"),
	})

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	utils.StartHealthMonitor(healthCtx, redisClient, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		logger.Warn("main: JWT_SECRET is empty, every bearer token will be rejected")
	}

	handlerBundle := &handlers.HandlerBundle{
		Bookings: handlers.NewBookingHandler(bookingService, payments, reconciler, logger),
		Webhooks: handlers.NewWebhookHandler(processor, cfg.StripeWebhookSecret, logger),
		Admin:    handlers.NewAdminHandler(processor, payments, logger),

		CustomerAuth: middleware.JWTAuthMiddleware(jwtSecret),
		OperatorAuth: middleware.OperatorAuthMiddleware(jwtSecret, cfg.OperatorKeyHash),
		RateLimit:    middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg, redisClient), logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	stopHealth()
	database.Disconnect()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
