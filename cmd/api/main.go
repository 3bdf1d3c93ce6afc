package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/nextchat-ai-platform/internal/api/router"
	"github.com/wolfman30/nextchat-ai-platform/internal/app/bootstrap"
	"github.com/wolfman30/nextchat-ai-platform/internal/bridge"
	appconfig "github.com/wolfman30/nextchat-ai-platform/internal/config"
	"github.com/wolfman30/nextchat-ai-platform/internal/conversation"
	httpmiddleware "github.com/wolfman30/nextchat-ai-platform/internal/http/middleware"
	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/internal/webchat"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting nextchat API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	metricsHandler, engineMetrics := setupMetrics()

	srv, cleanup, err := buildServer(ctx, cfg, logger, engineMetrics, metricsHandler)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupMetrics returns the /metrics handler and the engine collectors on a
// dedicated registry.
func setupMetrics() (http.Handler, *metrics.EngineMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewEngineMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.EngineMetrics, metricsHandler http.Handler) (*http.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	healthChecks := map[string]router.HealthCheck{}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	transcripts := bootstrap.BuildTranscriptStore(redisClient, cfg)

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if pool != nil {
		closers = append(closers, pool.Close)
		healthChecks["postgres"] = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set; scheduling integrations are disabled")
	}

	composer, err := bootstrap.BuildComposer(ctx, cfg, logger, m)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	process := bootstrap.BuildProcessRunner(cfg, logger, m)
	bookingClient := bootstrap.BuildBookingClient(cfg, bootstrap.BuildCredentialStore(pool), process, logger, m)
	engine := bootstrap.BuildEngine(bookingClient, composer, logger, m)
	chat := conversation.NewChatService(engine, transcripts, logger)

	bots, err := webchat.ParseBotDirectory(cfg.WebchatBotsJSON)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopSweep := make(chan struct{})
	go limiter.Run(stopSweep)
	closers = append(closers, func() { close(stopSweep) })

	var bridgeHandler *bridge.Handler
	if cfg.BridgeSharedSecret != "" {
		bridgeHandler = bridge.NewHandler(cfg.BridgeServerName, cfg.BridgeSharedSecret, bookingClient, process, logger)
	} else {
		logger.Info("BRIDGE_SHARED_SECRET not set; /api/mcp is not mounted")
	}

	handler := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(chat, bots, logger),
		BridgeHandler:       bridgeHandler,
		WebchatHandler:      webchat.NewHandler(chat, bots, logger),
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimiter:         limiter,
		HealthChecks:        healthChecks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, cleanup, nil
}
