package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcHandler "github.com/Likith-Yadav/PayCoreX/internal/adapter/handler/grpc"
	handlers "github.com/Likith-Yadav/PayCoreX/internal/adapter/handler/http"
	"github.com/Likith-Yadav/PayCoreX/internal/config"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/crypto"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/database"
	grpcServer "github.com/Likith-Yadav/PayCoreX/internal/infrastructure/grpc"
	httpServer "github.com/Likith-Yadav/PayCoreX/internal/infrastructure/http"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/metrics"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/provider/chain"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/worker"
	"github.com/Likith-Yadav/PayCoreX/internal/usecase"
	"github.com/Likith-Yadav/PayCoreX/pkg/keylock"
	"github.com/Likith-Yadav/PayCoreX/pkg/logger"
	"github.com/Likith-Yadav/PayCoreX/pkg/messaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
		Service:     cfg.Service.Name,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting payment pipeline",
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("environment", cfg.Service.Environment))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	events, err := newPublisher(cfg.Events, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer events.Close()

	enc, err := crypto.NewAESEncryptionService(cfg.Vault.Key)
	if err != nil {
		zapLogger.Fatal("Failed to initialize vault encryption", zap.Error(err))
	}
	vault := crypto.NewVault(enc, repos.Vault)

	networks, err := chain.NewRegistry(ctx, cfg.Crypto.Networks, zapLogger.Named("chain"))
	if err != nil {
		zapLogger.Fatal("Failed to initialize crypto networks", zap.Error(err))
	}

	// Services, leaves first
	locks := keylock.New()
	ledger := usecase.NewLedgerService(repos.Ledger, repos.Tx, locks, cfg.Ledger.MaxAttempts, m, zapLogger.Named("ledger"))
	wallets := usecase.NewWalletService(repos.Wallet, ledger, repos.Tx, cfg.Service.DefaultCurrency, zapLogger.Named("wallet"))
	webhooks := usecase.NewWebhookService(repos.Webhook, nil, usecase.WebhookOptions{
		Timeout:       cfg.Webhook.Timeout,
		MaxRetries:    cfg.Webhook.MaxRetries,
		SweepBatch:    cfg.Webhook.SweepBatch,
		Workers:       cfg.Webhook.Workers,
		RatePerSecond: cfg.Webhook.RatePerSecond,
	}, m, zapLogger.Named("webhook"))
	settlement := usecase.NewSettlementService(repos.Payment, ledger, repos.Tx, webhooks, events, m, zapLogger.Named("settlement"))

	factory := provider.NewFactory(cfg, networks, vault, zapLogger)
	payments := usecase.NewPaymentService(
		repos.Payment,
		factory.Executors(wallets, repos.Token),
		settlement,
		cfg.Service.DefaultCurrency,
		cfg.Executor.Timeout,
		m,
		zapLogger.Named("payment"),
	)
	verification := usecase.NewVerificationService(repos.Payment, repos.PaymentConfig, settlement, factory.Gateways(), zapLogger.Named("verification"))
	refunds := usecase.NewRefundService(repos.Payment, repos.Refund, wallets, ledger, repos.Tx, locks, webhooks, events, m, zapLogger.Named("refund"))
	tokens := usecase.NewTokenService(repos.Token, vault, zapLogger.Named("token"))
	addresses := usecase.NewCryptoAddressService(repos.CryptoAddress, networks, zapLogger.Named("crypto_address"))
	configs := usecase.NewPaymentConfigService(repos.PaymentConfig, vault, zapLogger.Named("payment_config"))

	// Servers
	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Payments:    handlers.NewPaymentHandler(payments, verification, zapLogger),
		Refunds:     handlers.NewRefundHandler(refunds, zapLogger),
		Wallets:     handlers.NewWalletHandler(wallets, ledger, zapLogger),
		Webhooks:    handlers.NewWebhookHandler(webhooks, zapLogger),
		Instruments: handlers.NewInstrumentHandler(tokens, addresses, configs, zapLogger),
	}, registry)

	health := grpcHandler.NewHealthHandler(dbProbe(db), zapLogger.Named("health"))
	grpcSrv := grpcServer.NewServer(cfg, zapLogger, health)

	go health.Watch(ctx, 15*time.Second)
	go worker.NewWebhookSweeper(webhooks, cfg.Webhook.SweepInterval, zapLogger.Named("sweeper")).Run(ctx)

	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}

// newPublisher picks the event sink named by events.driver.
func newPublisher(cfg config.EventsConfig, zapLogger *zap.Logger) (messaging.Publisher, error) {
	switch cfg.Driver {
	case config.EventsDriverRedis:
		zapLogger.Info("Publishing events to redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel))
		return messaging.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
	case config.EventsDriverKafka:
		zapLogger.Info("Publishing events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
		return messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	default:
		return messaging.NoopPublisher{}, nil
	}
}

func dbProbe(db *gorm.DB) grpcHandler.Probe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
