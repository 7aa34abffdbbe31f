package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spendsmart-api/internal/application/category"
	"github.com/spendsmart-api/internal/config"
	amqpinfra "github.com/spendsmart-api/internal/infrastructure/amqp"
	"github.com/spendsmart-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/spendsmart-api/internal/infrastructure/jwt"
	"github.com/spendsmart-api/internal/infrastructure/memory"
	s3infra "github.com/spendsmart-api/internal/infrastructure/s3"
	"github.com/spendsmart-api/internal/infrastructure/smtp"
	"github.com/spendsmart-api/internal/infrastructure/sns"
	transporthttp "github.com/spendsmart-api/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// run wires the application and serves until a shutdown signal arrives or the
// listener fails. Deferred cleanup always runs before it returns.
func run() error {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamodb client: %w", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	categoryRepo := dynamo.NewCategoryRepo(dynamoClient, cfg.DynamoTables.Categories)
	txRepo := dynamo.NewTransactionRepo(dynamoClient, cfg.DynamoTables.Transactions)

	if cfg.SeedCategories {
		seeder := category.NewService(category.ServiceDeps{CategoryRepo: categoryRepo, TransactionRepo: txRepo})
		if _, err := seeder.Seed(ctx); err != nil {
			slog.Warn("category seeding failed", "err", err)
		}
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	// S3 store for generated statements.
	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)
	if err := s3Store.EnsureBucket(ctx); err != nil {
		slog.Warn("report bucket not available", "bucket", cfg.S3BucketName, "err", err)
	}

	var mailer transporthttp.Mailer
	switch cfg.DeliveryMode {
	case config.DeliveryAMQP:
		pub, err := amqpinfra.NewMailPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("amqp publisher: %w", err)
		}
		defer pub.Close()
		mailer = pub
	default:
		mailer = smtp.NewMailer(cfg)
	}
	slog.Info("outbound mail configured", "mode", cfg.DeliveryMode)

	// SNS SMS sender (optional, graceful fallback).
	var smsSender transporthttp.SMSSender
	if cfg.SMSEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = sender
		} else {
			slog.Warn("SNS sender not available", "err", err)
		}
	}

	codes := memory.NewVerificationStore(memory.WithTTL(cfg.OTPTTL), memory.WithMaxAttempts(cfg.OTPMaxAttempts))
	janitor := memory.NewJanitor(codes, cfg.OTPSweepInterval)
	janitor.Start()
	defer janitor.Stop()

	deps := &transporthttp.Deps{
		UserRepo:        userRepo,
		CategoryRepo:    categoryRepo,
		TransactionRepo: txRepo,
		Codes:           codes,
		ObjectStore:     s3Store,
		Mailer:          mailer,
		SMSSender:       smsSender,
		JWTProvider:     jwtProvider,
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
	return serve(srv, quit, 10*time.Second)
}

// serve runs srv until a value arrives on quit or ListenAndServe fails. A listener
// failure is returned; a signal triggers a graceful shutdown bounded by timeout.
func serve(srv *http.Server, quit <-chan os.Signal, timeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
	return nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
