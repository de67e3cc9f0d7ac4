package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/RelikeddDev/controlio/internal/amqp"
	"github.com/RelikeddDev/controlio/internal/config"
	applog "github.com/RelikeddDev/controlio/internal/log"
	"github.com/RelikeddDev/controlio/internal/services"
	"github.com/RelikeddDev/controlio/internal/storage"
	"github.com/RelikeddDev/controlio/internal/vision"
)

func main() {
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentWorker
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	logger.Info("Starting receipt worker")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extractor, err := vision.NewClient(ctx, cfg.VisionCredentialsFile, cfg.VisionCredentialsJSON)
	if err != nil {
		logger.Error("Failed to initialize Vision client", "error", err)
		os.Exit(1)
	}

	receipts := services.NewReceiptService(repo, repo, nil, cfg.ReceiptMaxImageKB)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return consumeLoop(ctx, cfg, receipts, extractor, logger)
		})
	} else {
		logger.Info("AMQP disabled - relying on the poll pass only")
	}

	// The poll pass catches receipts whose queue message was lost and
	// serves as the only path when AMQP is disabled.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReceiptPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				n, err := receipts.ProcessPending(ctx, extractor, 50)
				if err != nil {
					logger.Error("Poll pass failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("Poll pass processed receipts", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// consumeLoop keeps a consumer alive across broker outages, redialing
// with exponential backoff.
func consumeLoop(ctx context.Context, cfg *config.Config, receipts *services.ReceiptService, extractor *vision.Client, logger *applog.Logger) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			wait := exponentialBackoff(attempt)
			attempt++
			logger.Error("Failed to connect to AMQP, retrying",
				"error", err, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		attempt = 0

		err = client.ConsumeReceiptAnalyze(ctx, func(msg *amqp.ReceiptAnalyzeMessage) error {
			return receipts.Process(ctx, extractor, msg.ReceiptID)
		})
		client.Close()
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Error("Consumer stopped, reconnecting", "error", err)
	}
}

// exponentialBackoff doubles from one second, capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return 30 * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}
