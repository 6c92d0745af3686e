package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pix-disbursement-service/internal/api"
	"github.com/pix-disbursement-service/internal/config"
	"github.com/pix-disbursement-service/internal/data/mongo"
	"github.com/pix-disbursement-service/internal/data/postgres"
	"github.com/pix-disbursement-service/internal/itau"
	"github.com/pix-disbursement-service/internal/logger"
	"github.com/pix-disbursement-service/internal/platform/messaging/producers"
	"github.com/pix-disbursement-service/internal/platform/persistence"
	"github.com/pix-disbursement-service/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for lifecycle events
	lifecycleProducer, err := producers.NewLifecycleEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize lifecycle Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	installmentRepo := postgres.NewInstallmentRepository(log, postgresDB)
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	invoiceRepo := postgres.NewInvoiceRepository(log, postgresDB)
	companyRepo := postgres.NewCompanyRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	exchangeRepo := postgres.NewExchangeRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize the bank gateway client
	tokens := itau.NewTokenSource(cfg.Itau, auditRepo, log)
	gateway := itau.NewClient(cfg.Itau, tokens, exchangeRepo, auditRepo, log)

	// Initialize services
	installmentService := service.NewInstallmentService(
		postgresDB,
		installmentRepo,
		paymentRepo,
		invoiceRepo,
		companyRepo,
		ledgerRepo,
		exchangeRepo,
		auditRepo,
		gateway,
		lifecycleProducer,
		log,
	)
	batchSyncService, err := service.NewBatchSyncService(installmentService, installmentRepo, cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to initialize batch sync worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize REST server
	server := api.NewServer(log, cfg, installmentService, batchSyncService, auditRepo)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no request reaches a closing pool
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	batchSyncService.Shutdown()

	postgresDB.Close()

	if err = lifecycleProducer.Close(); err != nil {
		log.Error("Error closing lifecycle Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
