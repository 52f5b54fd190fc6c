package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/FernandoChao/moneyzen-api/internal/amqp"
	"github.com/FernandoChao/moneyzen-api/internal/auth"
	"github.com/FernandoChao/moneyzen-api/internal/backend"
	"github.com/FernandoChao/moneyzen-api/internal/config"
	apphttp "github.com/FernandoChao/moneyzen-api/internal/http"
	"github.com/FernandoChao/moneyzen-api/internal/ledger"
	applog "github.com/FernandoChao/moneyzen-api/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the store through the backend factory
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateStore(ctx, backend.Config{
		Type:          backend.BackendType(cfg.StoreBackend),
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		OpTimeout:     cfg.StoreOpTimeout,
	})
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cleanupCancel()
			if err := result.Cleanup(cleanupCtx); err != nil {
				logger.Error("Store cleanup error", "error", err)
			}
		}()
	}

	// Initialize the Firebase token verifier
	verifier, err := auth.NewFirebaseVerifier(ctx, []byte(cfg.FirebaseServiceAccount))
	if err != nil {
		logger.Error("Failed to initialize Firebase verifier", "error", err)
		os.Exit(1)
	}

	// Initialize AMQP client for reconcile messages (optional)
	var publisher ledger.ReconcilePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without reconcile messages", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	writer := ledger.NewWriter(result.Store, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, verifier, writer)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting moneyzen server", "port", cfg.Port, "backend", cfg.StoreBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
