package config

import (
	"fmt"
	"strings"
	"time"
)

// StoreKind selects the session store backend.
type StoreKind string

const (
	// StoreMemory keeps sessions in-process (single instance deployments).
	StoreMemory StoreKind = "memory"
	// StoreRedis keeps sessions in Redis with TTL semantics.
	StoreRedis StoreKind = "redis"
	// StorePostgres keeps sessions in a Postgres table.
	StorePostgres StoreKind = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreKind.
func (s *StoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "redis", "postgres":
		*s = StoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreKind: %q (valid options: memory, redis, postgres)", v)
	}
}

// ProviderConfig contains connection settings for the identity provider.
// The anon key authorizes lifecycle calls (signup, password login); the
// service-role key authorizes per-request token revalidation. Either may be
// absent: an entirely unconfigured provider disables the auth endpoints
// (503), while a missing service-role key degrades the gateway to the
// cached-identity fallback.
type ProviderConfig struct {
	URL            string        `env:"URL"`
	AnonKey        string        `env:"ANON_KEY"`
	ServiceRoleKey string        `env:"SERVICE_ROLE_KEY"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Configured reports whether the lifecycle client can be built.
func (p ProviderConfig) Configured() bool {
	return p.URL != "" && p.AnonKey != ""
}

// AdminConfigured reports whether the revalidation client can be built.
func (p ProviderConfig) AdminConfigured() bool {
	return p.URL != "" && p.ServiceRoleKey != ""
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Provider holds identity provider connection settings.
	Provider ProviderConfig `envPrefix:"PROVIDER_"`

	// SiteURL is the public base URL used to build the signup confirmation
	// redirect. When empty, the redirect is derived from the request host.
	SiteURL string `env:"SITE_URL"`

	// SessionTTL is the server-side session (and cookie) lifetime.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Store selects the session store backend.
	Store StoreKind `env:"SESSION_STORE" envDefault:"memory"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 24 * time.Hour
	}
	if a.Provider.Timeout <= 0 {
		a.Provider.Timeout = 30 * time.Second
	}
	if a.Store == "" {
		a.Store = StoreMemory
	}
}
