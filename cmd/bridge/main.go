package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	catalogapp "github.com/erp/syncbridge/internal/application/catalog"
	"github.com/erp/syncbridge/internal/application/orchestrator"
	ordersapp "github.com/erp/syncbridge/internal/application/orders"
	"github.com/erp/syncbridge/internal/infrastructure/cache"
	"github.com/erp/syncbridge/internal/infrastructure/config"
	"github.com/erp/syncbridge/internal/infrastructure/erp"
	"github.com/erp/syncbridge/internal/infrastructure/logger"
	"github.com/erp/syncbridge/internal/infrastructure/remote"
	"github.com/erp/syncbridge/internal/infrastructure/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ERP sync bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("erp_mode", cfg.Erp.Mode),
	)

	// ERP gateway, selected by mode; SQL mode logs through zap-backed GORM
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	gateway, err := erp.NewGateway(&cfg.Erp, log, gormLog)
	if err != nil {
		log.Fatal("Failed to create ERP gateway", zap.Error(err))
	}

	// Cloud order API client
	remoteClient, err := remote.NewClient(&remote.Config{
		BaseURL:  cfg.Remote.BaseURL,
		APIToken: cfg.Remote.APIToken,
		Timeout:  cfg.Remote.Timeout,
		PageSize: cfg.Remote.PageSize,
	}, log)
	if err != nil {
		log.Fatal("Failed to create cloud API client", zap.Error(err))
	}

	// Processed-order dedup store
	store, err := cache.NewProcessedStore(cfg.Dedup.Backend, cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		log.Fatal("Failed to create processed-order store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing processed-order store", zap.Error(err))
		}
	}()

	// Retry policy for document creation
	policy, err := retry.NewPolicy(retry.Config{
		MaxAttempts:     cfg.Bridge.MaxAttempts,
		BackoffSchedule: cfg.Bridge.BackoffSchedule,
	}, log)
	if err != nil {
		log.Fatal("Invalid retry configuration", zap.Error(err))
	}

	// Application services
	processor := ordersapp.NewProcessor(remoteClient, gateway, policy, store, cfg.Dedup.TTL, log)
	catalogService := catalogapp.NewService(remoteClient, gateway, cfg.Remote.PageSize, log)

	orch, err := orchestrator.New(orchestrator.Config{
		PollInterval:      cfg.Bridge.PollInterval,
		OrdersEnabled:     cfg.Bridge.OrdersEnabled,
		ProductsInterval:  cfg.Bridge.ProductsInterval,
		ProductsEnabled:   cfg.Bridge.ProductsEnabled,
		CustomersInterval: cfg.Bridge.CustomersInterval,
		CustomersEnabled:  cfg.Bridge.CustomersEnabled,
	}, remoteClient, gateway, processor, catalogService, log)
	if err != nil {
		log.Fatal("Failed to create orchestrator", zap.Error(err))
	}

	// Run until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Bridge loop failed", zap.Error(err))
	}
	log.Info("ERP sync bridge stopped")
}
