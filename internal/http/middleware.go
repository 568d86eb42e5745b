package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns the gateway middleware. For every request it reads the
// session cookie, runs the revalidation protocol through the auth service, and
// attaches the resolved identity (if any) to the request context.
//
// The middleware never blocks a request: resolution failures are logged and
// the request proceeds anonymously. Handlers that need a guarantee use
// RequireAuth on top of this.
func WithIdentity(authSvc AuthServiceInterface, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				sessionID = cookie.Value
			}

			res, err := authSvc.Resolve(r.Context(), sessionID)
			if err != nil {
				logger.WarnContext(r.Context(), "session resolution failed",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
			}

			if res.Identity != nil {
				r = r.WithContext(SetIdentityInContext(r.Context(), res.Identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that rejects anonymous requests.
// It must run downstream of WithIdentity.
// For API requests it returns a 401 JSON response; browser requests are
// redirected to the landing page with an auth prompt.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAnonymous(r.Context()) {
				if isBrowserRequest(r) {
					http.Redirect(w, r, "/?auth=required", http.StatusSeeOther)
					return
				}
				WriteError(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}

	return strings.Contains(accept, "text/html")
}
