package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/digital-store/internal/cache"
	"github.com/fjod/go_cart/digital-store/internal/config"
	"github.com/fjod/go_cart/digital-store/internal/gateway"
	h "github.com/fjod/go_cart/digital-store/internal/http"
	"github.com/fjod/go_cart/digital-store/internal/publisher"
	"github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/fjod/go_cart/digital-store/internal/service"
	"github.com/fjod/go_cart/digital-store/internal/webhook"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
)

const serviceName = "digital-store"

func main() {
	cfg, err := config.Load()
	log := logger.New(logger.Options{
		Service: serviceName,
		Level:   getLogLevel(cfg),
		Pretty:  cfg != nil && cfg.Env == "development",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().Str("env", cfg.Env).Msg("digital-store starting...")

	// Database setup
	creds := &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	// Payment URL cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis ping succeeded")
	urls := cache.NewRedisCache(redisClient, cfg.Paymob.KeyExpiration)

	// Receipt jobs
	notifier := publisher.NewReceiptNotifier(cfg.ReceiptTopic, cfg.KafkaBrokers...)
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close receipt notifier")
		}
	}()

	paymob := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Paymob.BaseURL,
		IframeBaseURL: cfg.Paymob.IframeBaseURL,
		APIKey:        cfg.Paymob.APIKey,
		IntegrationID: cfg.Paymob.IntegrationID,
		IframeID:      cfg.Paymob.IframeID,
		Currency:      cfg.Paymob.Currency,
		KeyExpiration: cfg.Paymob.KeyExpiration,
		Timeout:       cfg.Paymob.Timeout,
	}, nil)

	// Create handler wrappers
	gatewayHandler := service.NewGatewayHandler(paymob, cfg.Paymob.Timeout)
	notifierHandler := service.NewNotifierHandler(notifier, 5*time.Second)

	checkoutService := service.NewCheckoutService(repo, gatewayHandler, urls)
	cartService := service.NewCartService(repo)
	reconciler := service.NewPaymentReconciler(repo, webhook.NewVerifier(cfg.Paymob.HMACSecret), notifierHandler, urls)

	router := h.NewRouter(h.Handlers{
		Checkout: h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(checkoutService, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(cartService, cfg.RequestTimeout),
		Webhook:  h.NewWebhookHandler(reconciler, cfg.MaxRequestBodySize),
	}, log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func getLogLevel(cfg *config.Config) string {
	if cfg == nil {
		return "info"
	}
	return cfg.LogLevel
}
