package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RelikeddDev/controlio/internal/amqp"
	"github.com/RelikeddDev/controlio/internal/config"
	apphttp "github.com/RelikeddDev/controlio/internal/http"
	applog "github.com/RelikeddDev/controlio/internal/log"
	"github.com/RelikeddDev/controlio/internal/services"
	"github.com/RelikeddDev/controlio/internal/storage"
)

func main() {
	// Load .env for local development; in containers the env is already set.
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentApp
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	logger.Info("Starting controlio server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			"error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.CategorySeedFile != "" {
		n, err := repo.SeedCategories(context.Background(), cfg.CategorySeedFile)
		if err != nil {
			logger.Error("Failed to seed categories", "error", err)
			os.Exit(1)
		}
		if n > 0 {
			logger.Info("Seeded categories", "count", n, "file", cfg.CategorySeedFile)
		}
	}

	// The AMQP broker is optional; without it receipt analysis falls back
	// to the worker's poll pass.
	var publisher services.ReceiptPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	cards := services.NewCardService(repo)
	categories := services.NewCategoryService(repo)
	transactions := services.NewTransactionService(repo, repo, repo)
	payments := services.NewPaymentsService(repo, repo)
	receipts := services.NewReceiptService(repo, repo, publisher, cfg.ReceiptMaxImageKB)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		CacheSize: cfg.ProjectionCacheSize,
		CacheTTL:  cfg.ProjectionCacheTTL,
	}, cards, categories, transactions, payments, receipts)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	logger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
