package httpx

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterServices holds all the services and configuration needed by the HTTP router.
type RouterServices struct {
	Auth         AuthServiceInterface
	SiteURL      string
	CookieDomain string
	IsDev        bool
	Logger       *slog.Logger
	// Optional: registry backing the /metrics endpoint. Nil disables it.
	MetricsRegistry *prometheus.Registry
}

// NewRouter creates and configures the gateway's HTTP router.
// Every request passes through the identity middleware before reaching a
// handler, so handlers can rely on the context carrying the resolved identity.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		SiteURL:      services.SiteURL,
		CookieDomain: services.CookieDomain,
		IsDev:        services.IsDev,
		Logger:       logger,
	}
	registerAuthRoutes(mux, authHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.MetricsRegistry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(services.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = WithIdentity(services.Auth, logger)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("POST /auth/signup", http.HandlerFunc(h.Signup))
	mux.Handle("POST /auth/login", http.HandlerFunc(h.Login))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/check", http.HandlerFunc(h.Check))
}
