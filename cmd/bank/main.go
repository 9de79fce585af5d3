package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	accounts_app "bank/internal/app/accounts"
	transfers_app "bank/internal/app/transfers"
	"bank/internal/config"
	accounts_http "bank/internal/handler/http/accounts"
	transfers_http "bank/internal/handler/http/transfers"
	"bank/internal/infrastructure/database"
	kafka_infra "bank/internal/infrastructure/kafka"
	"bank/internal/metrics"
	"bank/internal/outbox"
	accounts_pg "bank/internal/repository/accounts_repo/postgres"
	outbox_pg "bank/internal/repository/outbox_repo/postgres"
	transactions_pg "bank/internal/repository/transactions_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("bank service starting")

	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.Name,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 3 * time.Second
	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			logger.Info("connected to PostgreSQL")
			break
		}
		logger.Warn("failed to connect to database, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_in", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	if db == nil {
		logger.Fatal("could not connect to database after retries", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", zap.Error(err))
		}
	}()

	logger.Info("running database migrations")
	m, err := migrate.New(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString())
	if err != nil {
		logger.Fatal("failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("bank", registry)

	baseRunner := database.NewSQLTxRunner(db, logger.With(zap.String("component", "TxRunner")))
	runner := database.NewResilientTxRunner(baseRunner, database.ResilientConfig{
		MaxRetries: cfg.TransferRetries,
		Backoff:    cfg.TransferBackoff,
	}, logger.With(zap.String("component", "ResilientTxRunner")))

	accountRepository := accounts_pg.NewAccountRepository()
	transactionRepository := transactions_pg.NewTransactionRepository()
	outboxRepository := outbox_pg.NewOutboxRepository()

	accountService := accounts_app.NewAccountService(
		db,
		runner,
		accountRepository,
		cfg.OpeningBalance,
		logger.With(zap.String("component", "AccountService")),
	)
	transferService := transfers_app.NewTransferService(
		db,
		runner,
		accountRepository,
		transactionRepository,
		outboxRepository,
		cfg.KafkaTransferTopic,
		cfg.TransferTimeout,
		collector,
		logger.With(zap.String("component", "TransferService")),
	)
	logger.Info("services initialized")

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Route("/v1", func(r chi.Router) {
		accounts_http.RegisterRoutes(r, accountService, logger.With(zap.String("component", "HTTPHandler")))
		transfers_http.RegisterRoutes(r, transferService, logger.With(zap.String("component", "HTTPHandler")))
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	kafkaProducer := kafka_infra.NewProducer(
		cfg.GetKafkaBrokers(),
		cfg.KafkaTransferTopic,
		logger.With(zap.String("component", "KafkaProducer")),
	)
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("error closing Kafka producer", zap.Error(err))
		}
	}()

	outboxProcessor := outbox.NewProcessor(
		db,
		runner,
		outboxRepository,
		kafkaProducer,
		cfg.OutboxPollInterval,
		cfg.OutboxPollTimeout,
		cfg.OutboxBatchSize,
		collector,
		logger.With(zap.String("component", "OutboxProcessor")),
	)

	ctxMain, cancelMain := context.WithCancel(context.Background())
	defer cancelMain()

	go func() {
		logger.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go outboxProcessor.Start(ctxMain)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	logger.Info("bank service stopped")
}
