package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"donghaeng/internal/cli"
	"donghaeng/internal/config"
	apphttp "donghaeng/internal/http"
	applog "donghaeng/internal/log"
	"donghaeng/internal/middleware/ratelimit"
	"donghaeng/internal/peers"
	"donghaeng/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result, cleanup, err := cli.OpenBackend(ctx, cfg, true, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer cleanup()

	normalizer, err := services.LoadNormalizer(ctx, result.Store)
	if err != nil {
		cleanup()
		cli.Fatal(logger, "Failed to load category mappings", err)
	}

	var live peers.PeerDataSource
	if cfg.PeerStatsURL != "" {
		live = peers.NewLiveSource(peers.LiveConfig{
			URL:      cfg.PeerStatsURL,
			APIKey:   cfg.PeerStatsAPIKey,
			Timeout:  cfg.PeerStatsTimeout,
			CacheTTL: cfg.PeerStatsCacheTTL,
		}, normalizer)
		logger.Info("Live peer statistics enabled", "url", cfg.PeerStatsURL)
	}
	peerProvider := peers.NewProvider(live, peers.NewStaticSource(), logger)

	// A nil *amqp.Client must not become a non-nil interface.
	var publisher services.EventPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: services.NewTransactionService(result.Store, normalizer, publisher, logger),
		Mappings:     services.NewMappingService(result.Store, normalizer, logger),
		Analytics:    services.NewAnalyticsService(result.Store, result.Store, peerProvider, logger),
		Store:        result.Store,
	}, apphttp.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		RequestTimeout: cfg.RequestTimeout,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	}, logger)
	if err != nil {
		cleanup()
		cli.Fatal(logger, "Failed to create HTTP server", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting donghaeng server",
			"port", cfg.Port, "backend", cfg.DataBackend, "amqp", publisher != nil, applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
