// Command authflowd serves the authentication API over HTTP, backed by Redis
// for account storage and SMTP for outbound mail.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jmcadam/authflow"
	"github.com/jmcadam/authflow/httpapi"
	"github.com/jmcadam/authflow/mail"
	"github.com/jmcadam/authflow/redisstore"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return err
	}

	cfg := serviceConfig()

	builder := authflow.New().
		WithConfig(cfg).
		WithStore(redisstore.New(rdb)).
		WithAuditSink(authflow.NewJSONWriterSink(os.Stdout))

	smtpCfg := mail.SMTPConfig{
		Host:     os.Getenv("EMAIL_HOST"),
		Port:     envInt("EMAIL_PORT", 587),
		Username: os.Getenv("EMAIL_USER"),
		Password: os.Getenv("EMAIL_PASS"),
		From:     envOr("EMAIL_FROM", os.Getenv("EMAIL_USER")),
	}
	if smtpCfg.Configured() {
		builder.WithNotifier(mail.NewSMTPNotifier(smtpCfg))
	} else {
		logger.Warn("smtp not configured, verification and reset mail disabled")
	}

	service, err := builder.Build()
	if err != nil {
		return err
	}
	defer service.Close()

	handler := httpapi.NewHandler(service, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, smtpCfg.Configured())

	routerCfg := httpapi.DefaultRouterConfig()
	routerCfg.Logger = logger

	srv := &http.Server{
		Addr:              ":" + envOr("PORT", "5000"),
		Handler:           httpapi.NewRouter(handler, service, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serviceConfig() authflow.Config {
	cfg := authflow.DefaultConfig()
	cfg.SessionToken.PrivateKey = []byte(os.Getenv("JWT_SECRET"))
	cfg.Notifier.BaseURL = envOr("CLIENT_URL", "http://localhost:3000")
	if ttl := envInt("JWT_TTL_HOURS", 0); ttl > 0 {
		cfg.SessionToken.TTL = time.Duration(ttl) * time.Hour
	}
	return cfg
}

func newLogger() *zap.Logger {
	if os.Getenv("NODE_ENV") == "development" || os.Getenv("ENV") == "development" {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
