package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/verdan/authgate/internal/bootstrap"
	httpx "github.com/verdan/authgate/internal/http"
	"github.com/verdan/authgate/internal/observability/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting authgate",
		"addr", cfg.HTTP.Addr,
		"session_store", cfg.Auth.Store,
		"dev", cfg.IsDev)

	storeResult, err := bootstrap.BuildSessionStore(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storeResult.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close session store failed", "error", cerr)
		}
	}()

	clients, err := bootstrap.BuildProviderClients(cfg.Auth.Provider, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	authMetrics := metrics.NewWith(registry)

	authSvc := bootstrap.BuildAuthService(&cfg, clients, storeResult.Store, authMetrics)

	handler := httpx.NewRouter(httpx.RouterServices{
		Auth:            authSvc,
		SiteURL:         cfg.Auth.SiteURL,
		CookieDomain:    cfg.HTTP.CookieDomain,
		IsDev:           cfg.IsDev,
		Logger:          logger,
		MetricsRegistry: registry,
	})

	server := bootstrap.NewHTTPServer(cfg.HTTP, handler)
	return bootstrap.RunHTTPServer(ctx, server, cfg.HTTP, logger)
}
