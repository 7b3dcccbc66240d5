package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-orchestrator/awsx"
	"payment-orchestrator/config"
	"payment-orchestrator/controllers"
	"payment-orchestrator/database"
	"payment-orchestrator/gateways"
	"payment-orchestrator/handlers"
	kafkapkg "payment-orchestrator/kafka"
	"payment-orchestrator/ledger"
	"payment-orchestrator/models"
	"payment-orchestrator/repository"
	"payment-orchestrator/routes"
	servicepkg "payment-orchestrator/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.ConnectPostgres(cfg, logger,
		&models.Order{},
		&models.OrderShipment{},
		&models.OrderSku{},
		&models.OrderPayment{},
		&models.GiftCertificate{},
		&models.GiftCertificateTransaction{},
	)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	// AWS clients
	awsCfg, awsErr := awsx.LoadAWSConfig(context.Background())
	var snsClient awsx.SNSPublisher
	if awsErr != nil {
		logger.Warn("AWS config unavailable, SNS/SQS disabled", zap.Error(awsErr))
	} else {
		snsClient = awsx.NewSNSClient(awsCfg)
	}

	// Persistence
	paymentRepo := repository.NewGormOrderPaymentRepo(db)
	orderRepo := repository.NewGormOrderRepo(db, paymentRepo)
	certStore := repository.NewGormGiftCertificateStore(db)

	// Gift certificate ledger
	certLedger := ledger.NewService(certStore, logger)

	// Gateways
	registry := gateways.NewRegistry()
	registry.Register(cfg.StoreCode, gateways.NewStripeGateway(cfg.StripeSecretKey))
	registry.Register(cfg.StoreCode, gateways.NewPayPalGateway(cfg.PayPalClientID, cfg.PayPalSecret))
	registry.Register(cfg.StoreCode, gateways.NewGiftCertificateGateway(certLedger))

	// Kafka event producer
	producer := kafkapkg.NewPaymentEventProducer(cfg.KafkaBrokers, cfg.KafkaPaymentTopic, logger)
	defer producer.Close()

	// Orchestrator and DI chain
	factory := handlers.NewFactory(logger)
	skuLookup := servicepkg.NewHTTPSkuLookup(cfg.ProductServiceURL)
	orchestrator := servicepkg.NewPaymentOrchestrator(
		factory,
		registry,
		paymentRepo,
		orderRepo,
		skuLookup,
		producer,
		logger,
	)

	// SQS consumer for checkout payment requests
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if awsErr == nil && cfg.PaymentRequestQueueURL != "" {
		sqsConsumer := awsx.NewSQSConsumer(awsCfg, cfg.PaymentRequestQueueURL, logger)
		consumer := servicepkg.NewPaymentRequestConsumer(
			sqsConsumer, snsClient, cfg.PaymentSNSTopicARN, orchestrator, orderRepo, logger,
		)
		go consumer.Start(ctx)
	} else {
		logger.Warn("Payment request queue not configured, SQS consumer disabled")
	}

	paymentController := controllers.NewPaymentController(orchestrator, orderRepo, paymentRepo, logger)

	r := gin.New()

	// Global request-logging middleware
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
		)
	})

	// 30-second request timeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.SetupRoutes(r, paymentController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Payment service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down payment service...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
