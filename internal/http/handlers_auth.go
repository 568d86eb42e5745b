package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verdan/authgate/internal/ports"
	"github.com/verdan/authgate/internal/service"
)

// Cookie names used by the gateway. The session cookie is the only server
// trusted credential; the access token cookie exists for API clients that
// talk to the provider directly.
const (
	SessionCookieName     = "session_id"
	AccessTokenCookieName = "access_token"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SignUp(ctx context.Context, in service.SignUpInput) (ports.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Resolve(ctx context.Context, sessionID string) (service.Resolution, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	SiteURL      string
	CookieDomain string
	IsDev        bool
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// credentialsRequest is the shared request body for signup and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles account registration.
// POST /auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.Svc.SignUp(r.Context(), service.SignUpInput{
		Email:      req.Email,
		Password:   req.Password,
		RedirectTo: h.confirmationRedirect(r, req.Email),
	})
	if err != nil {
		h.writeAuthError(w, r, err, authErrorDefaults{
			Status:              http.StatusBadRequest,
			Message:             "Signup failed.",
			InconsistentMessage: "Signup succeeded without user data.",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"userId":  user.ID,
	})
}

// Login handles password authentication and issues the session cookie.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	result, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err, authErrorDefaults{
			Status:              http.StatusUnauthorized,
			Message:             "Invalid login credentials.",
			InconsistentMessage: "Login succeeded without session data.",
		})
		return
	}

	// The session record is already persisted; the cookies only reference it.
	sess := result.Session
	h.setCookie(w, r, cookieParams{
		Name:    SessionCookieName,
		Value:   sess.ID,
		Expires: sess.ExpiresAt,
	})
	h.setCookie(w, r, cookieParams{
		Name:    AccessTokenCookieName,
		Value:   sess.AccessToken,
		Expires: sess.ExpiresAt,
	})

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"userId":  sess.UserID,
	})
}

// Logout destroys the server-side session and clears client cookies.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	// Logout always succeeds from the client's perspective: a failed
	// server-side destroy is logged, but the cookies are cleared either way.
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if logoutErr := h.Svc.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", slog.Any("error", logoutErr))
		}
	}

	h.clearCookie(w, r, SessionCookieName)
	h.clearCookie(w, r, AccessTokenCookieName)

	// Browser form posts navigate back to the landing page; API clients
	// get a JSON acknowledgement.
	if isBrowserRequest(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully.",
	})
}

// Check reports the authentication state resolved for this request.
// GET /auth/check.
func (h *AuthHandlers) Check(w http.ResponseWriter, r *http.Request) {
	// The user key is always present; null means the request resolved to
	// anonymous.
	var user any
	if identity, ok := IdentityFromContext(r.Context()); ok {
		user = map[string]string{"id": identity.UserID, "email": identity.Email}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// authErrorDefaults carries the per-endpoint fallbacks for provider failures.
type authErrorDefaults struct {
	Status              int
	Message             string
	InconsistentMessage string
}

// writeAuthError maps service errors to the uniform error envelope.
// Provider-reported errors keep their status and message; everything else
// falls back to the endpoint defaults.
func (h *AuthHandlers) writeAuthError(w http.ResponseWriter, r *http.Request, err error, defaults authErrorDefaults) {
	switch {
	case errors.Is(err, service.ErrProviderNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "Authentication service is not configured.")
		return
	case errors.Is(err, service.ErrInconsistentProvider):
		h.logger().ErrorContext(r.Context(), "provider contract violation", slog.Any("error", err))
		WriteError(w, http.StatusInternalServerError, defaults.InconsistentMessage)
		return
	}

	var providerErr *ports.ProviderError
	if errors.As(err, &providerErr) {
		status := providerErr.Status
		if status < http.StatusBadRequest {
			status = defaults.Status
		}
		message := providerErr.Message
		if message == "" {
			message = defaults.Message
		}
		WriteError(w, status, message)
		return
	}

	h.logger().ErrorContext(r.Context(), "auth request failed", slog.Any("error", err))
	WriteError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

// confirmationRedirect builds the address the provider embeds in the
// confirmation email, pointing back at this deployment. The configured site
// URL wins; without one the base is derived from the request's own host and
// protocol.
func (h *AuthHandlers) confirmationRedirect(r *http.Request, email string) string {
	base := strings.TrimSuffix(h.SiteURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		host := r.Host
		if host == "" {
			host = "localhost:3000"
		}
		base = scheme + "://" + host
	}
	return base + "/auth/confirm?email=" + url.QueryEscape(email)
}

// cookieParams groups values needed to set an auth cookie.
type cookieParams struct {
	Name    string
	Value   string
	Expires time.Time
}

// setCookie writes an HttpOnly auth cookie scoped to the whole site.
// Cookies are marked Secure outside development so they only travel over TLS.
func (h *AuthHandlers) setCookie(w http.ResponseWriter, r *http.Request, p cookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    p.Value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.cookieSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(time.Until(p.Expires).Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting
// cookies to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.cookieSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) cookieSecure(r *http.Request) bool {
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return !h.IsDev
}
