package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verdan/authgate/config"
	"github.com/verdan/authgate/internal/adapters/gotrue"
	"github.com/verdan/authgate/internal/adapters/memstore"
	pgstore "github.com/verdan/authgate/internal/adapters/postgres"
	redisstore "github.com/verdan/authgate/internal/adapters/redis"
	"github.com/verdan/authgate/internal/observability/metrics"
	"github.com/verdan/authgate/internal/ports"
	"github.com/verdan/authgate/internal/service"
)

// SessionStoreResult holds the constructed store and a closer for the
// backing connection (a no-op for the in-memory store).
type SessionStoreResult struct {
	Store ports.SessionStore
	Close func() error
}

// BuildSessionStore constructs the session store backend selected by
// SESSION_STORE.
func BuildSessionStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*SessionStoreResult, error) {
	switch cfg.Auth.Store {
	case config.StoreMemory:
		logger.Info("using in-memory session store")
		return &SessionStoreResult{
			Store: memstore.NewSessionStore(),
			Close: func() error { return nil },
		}, nil

	case config.StoreRedis:
		client, err := ConnectRedis(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect session store redis: %w", err)
		}
		logger.Info("using redis session store")
		return &SessionStoreResult{
			Store: redisstore.NewSessionStore(client),
			Close: client.Close,
		}, nil

	case config.StorePostgres:
		db, err := ConnectDB(cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect session store database: %w", err)
		}
		store := pgstore.NewSessionStore(db)
		if schemaErr := store.EnsureSchema(ctx); schemaErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure session schema: %w", schemaErr)
		}
		logger.Info("using postgres session store")
		return &SessionStoreResult{Store: store, Close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Auth.Store)
	}
}

// ProviderClients holds the two provider credentials. Provider authorizes
// lifecycle calls; Verifier authorizes per-request revalidation. Either may
// be nil when the corresponding key is not configured.
type ProviderClients struct {
	Provider ports.ProviderClient
	Verifier ports.ProviderClient
}

// BuildProviderClients constructs the identity provider clients from config.
// Missing credentials are logged, not fatal: the service degrades per the
// gateway's fail-open rules instead of refusing to start.
func BuildProviderClients(cfg config.ProviderConfig, logger *slog.Logger) (ProviderClients, error) {
	var clients ProviderClients

	if cfg.Configured() {
		client, err := gotrue.NewClient(gotrue.Config{
			BaseURL: cfg.URL,
			APIKey:  cfg.AnonKey,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return ProviderClients{}, fmt.Errorf("build provider client: %w", err)
		}
		clients.Provider = client
	} else {
		logger.Warn("identity provider not configured; auth endpoints will respond 503")
	}

	if cfg.AdminConfigured() {
		client, err := gotrue.NewClient(gotrue.Config{
			BaseURL: cfg.URL,
			APIKey:  cfg.ServiceRoleKey,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return ProviderClients{}, fmt.Errorf("build verifier client: %w", err)
		}
		clients.Verifier = client
	} else {
		logger.Warn("service-role key not configured; sessions will not be revalidated against the provider")
	}

	return clients, nil
}

// BuildAuthService assembles the auth service from its parts.
func BuildAuthService(cfg *config.AppConfig, clients ProviderClients, store ports.SessionStore, m *metrics.AuthMetrics) *service.AuthService {
	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   clients.Provider,
		Verifier:   clients.Verifier,
		Sessions:   store,
		SessionTTL: cfg.Auth.SessionTTL,
		Metrics:    m,
	})
}
