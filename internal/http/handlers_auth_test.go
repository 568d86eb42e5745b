package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdan/authgate/internal/adapters/memstore"
	authmocks "github.com/verdan/authgate/internal/mocks/auth"
	"github.com/verdan/authgate/internal/ports"
	"github.com/verdan/authgate/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type gatewayFixture struct {
	Provider *authmocks.StubProviderClient
	Store    *memstore.SessionStore
	Handler  http.Handler
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	provider := authmocks.NewStubProviderClient()
	store := memstore.NewSessionStore()
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Verifier:   provider,
		Sessions:   store,
		SessionTTL: time.Hour,
	})
	handler := NewRouter(RouterServices{
		Auth:    svc,
		SiteURL: "https://app.example.com",
		IsDev:   true,
		Logger:  testLogger(),
	})
	return &gatewayFixture{Provider: provider, Store: store, Handler: handler}
}

func postJSON(t *testing.T, handler http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, handler http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSignupMissingFields(t *testing.T) {
	fx := newGatewayFixture(t)

	rec := postJSON(t, fx.Handler, "/auth/signup", `{"email":"a@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email and password are required.", body["message"])
	assert.Zero(t, fx.Provider.SignUpCalls)
}

func TestSignupSuccess(t *testing.T) {
	fx := newGatewayFixture(t)
	var gotRedirect string
	fx.Provider.SignUpFunc = func(_ context.Context, in ports.SignUpInput) (ports.User, error) {
		gotRedirect = in.EmailRedirectTo
		return ports.User{ID: "user-2", Email: in.Email}, nil
	}

	rec := postJSON(t, fx.Handler, "/auth/signup", `{"email":"new@example.com","password":"hunter2"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user-2", body["userId"])

	u, err := url.Parse(gotRedirect)
	require.NoError(t, err)
	assert.Equal(t, "/auth/confirm", u.Path)
	assert.Equal(t, "new@example.com", u.Query().Get("email"))
}

func TestSignupRedirectDerivedFromRequestHost(t *testing.T) {
	// Without a configured site URL the confirmation address is built from
	// the request's own host and forwarded protocol.
	provider := authmocks.NewStubProviderClient()
	var gotRedirect string
	provider.SignUpFunc = func(_ context.Context, in ports.SignUpInput) (ports.User, error) {
		gotRedirect = in.EmailRedirectTo
		return ports.User{ID: "user-3", Email: in.Email}, nil
	}
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Verifier:   provider,
		Sessions:   memstore.NewSessionStore(),
		SessionTTL: time.Hour,
	})
	handler := NewRouter(RouterServices{Auth: svc, IsDev: true, Logger: testLogger()})

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"new@example.com","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Host = "gateway.example.net:8443"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	u, err := url.Parse(gotRedirect)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "gateway.example.net:8443", u.Host)
	assert.Equal(t, "/auth/confirm", u.Path)
	assert.Equal(t, "new@example.com", u.Query().Get("email"))
}

func TestSignupToleratesUnknownFields(t *testing.T) {
	fx := newGatewayFixture(t)

	rec := postJSON(t, fx.Handler, "/auth/signup", `{"email":"new@example.com","password":"hunter2","rememberMe":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestSignupProviderError(t *testing.T) {
	fx := newGatewayFixture(t)
	fx.Provider.SignUpFunc = func(context.Context, ports.SignUpInput) (ports.User, error) {
		return ports.User{}, &ports.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Message: "User already registered",
		}
	}

	rec := postJSON(t, fx.Handler, "/auth/signup", `{"email":"dup@example.com","password":"hunter2"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User already registered", body["message"])
}

func TestSignupProviderNotConfigured(t *testing.T) {
	svc := service.NewAuthService(service.AuthServiceOptions{
		Sessions:   memstore.NewSessionStore(),
		SessionTTL: time.Hour,
	})
	handler := NewRouter(RouterServices{Auth: svc, IsDev: true, Logger: testLogger()})

	rec := postJSON(t, handler, "/auth/signup", `{"email":"a@example.com","password":"x"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Authentication service is not configured.", body["message"])
}

func TestSignupInconsistentProvider(t *testing.T) {
	fx := newGatewayFixture(t)
	fx.Provider.SignUpFunc = func(context.Context, ports.SignUpInput) (ports.User, error) {
		return ports.User{}, nil
	}

	rec := postJSON(t, fx.Handler, "/auth/signup", `{"email":"a@example.com","password":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Signup succeeded without user data.", body["message"])
}

func TestLoginSetsCookiesAndSessionIsImmediatelyLive(t *testing.T) {
	fx := newGatewayFixture(t)

	rec := postJSON(t, fx.Handler, "/auth/login", `{"email":"stub.user@example.com","password":"hunter2"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "stub-user-1", body["userId"])

	sessionCookie := cookieByName(t, rec, SessionCookieName)
	assert.True(t, sessionCookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, sessionCookie.SameSite)
	assert.Positive(t, sessionCookie.MaxAge)
	tokenCookie := cookieByName(t, rec, AccessTokenCookieName)
	assert.True(t, tokenCookie.HttpOnly)
	assert.Equal(t, "stub-access-token", tokenCookie.Value)

	// A check with the freshly issued cookie authenticates without any
	// intervening persistence delay.
	check := getPath(t, fx.Handler, "/auth/check", sessionCookie)
	require.Equal(t, http.StatusOK, check.Code)
	checkBody := decodeBody(t, check)
	assert.Equal(t, true, checkBody["success"])
	user, ok := checkBody["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "stub-user-1", user["id"])
	assert.Equal(t, "stub.user@example.com", user["email"])
}

func TestLoginMissingFields(t *testing.T) {
	fx := newGatewayFixture(t)

	rec := postJSON(t, fx.Handler, "/auth/login", `{"password":"hunter2"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fx.Provider.SignInCalls)
}

func TestLoginInvalidCredentials(t *testing.T) {
	fx := newGatewayFixture(t)
	fx.Provider.SignInFunc = func(context.Context, string, string) (ports.User, ports.ProviderSession, error) {
		return ports.User{}, ports.ProviderSession{}, &ports.ProviderError{
			Status:  http.StatusBadRequest,
			Message: "Invalid login credentials",
		}
	}

	rec := postJSON(t, fx.Handler, "/auth/login", `{"email":"a@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid login credentials", body["message"])
}

func TestLoginInconsistentProvider(t *testing.T) {
	fx := newGatewayFixture(t)
	fx.Provider.SignInFunc = func(context.Context, string, string) (ports.User, ports.ProviderSession, error) {
		return ports.User{ID: "user-1"}, ports.ProviderSession{}, nil
	}

	rec := postJSON(t, fx.Handler, "/auth/login", `{"email":"a@example.com","password":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Login succeeded without session data.", body["message"])
}

func TestLogoutDestroysSession(t *testing.T) {
	fx := newGatewayFixture(t)
	login := postJSON(t, fx.Handler, "/auth/login", `{"email":"stub.user@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, login.Code)
	sessionCookie := cookieByName(t, login, SessionCookieName)

	logout := postJSON(t, fx.Handler, "/auth/logout", "", sessionCookie)

	require.Equal(t, http.StatusOK, logout.Code)
	body := decodeBody(t, logout)
	assert.Equal(t, true, body["success"])
	cleared := cookieByName(t, logout, SessionCookieName)
	assert.Negative(t, cleared.MaxAge)

	// The original cookie no longer authenticates.
	check := getPath(t, fx.Handler, "/auth/check", sessionCookie)
	require.Equal(t, http.StatusOK, check.Code)
	assert.Nil(t, decodeBody(t, check)["user"])
}

func TestLogoutSucceedsWhenStoreDeleteFails(t *testing.T) {
	// A failed server-side destroy must not surface to the client; the
	// cookies are still cleared and the response is a success.
	provider := authmocks.NewStubProviderClient()
	store := &authmocks.FlakySessionStore{
		Inner: memstore.NewSessionStore(),
		DeleteFunc: func(context.Context, string) error {
			return io.ErrUnexpectedEOF
		},
	}
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Verifier:   provider,
		Sessions:   store,
		SessionTTL: time.Hour,
	})
	handler := NewRouter(RouterServices{Auth: svc, IsDev: true, Logger: testLogger()})

	login := postJSON(t, handler, "/auth/login", `{"email":"stub.user@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, login.Code)
	sessionCookie := cookieByName(t, login, SessionCookieName)

	logout := postJSON(t, handler, "/auth/logout", "", sessionCookie)

	require.Equal(t, http.StatusOK, logout.Code)
	assert.Equal(t, true, decodeBody(t, logout)["success"])
	assert.Negative(t, cookieByName(t, logout, SessionCookieName).MaxAge)
	assert.Negative(t, cookieByName(t, logout, AccessTokenCookieName).MaxAge)
}

func TestLogoutWithoutSession(t *testing.T) {
	fx := newGatewayFixture(t)

	rec := postJSON(t, fx.Handler, "/auth/logout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestLogoutBrowserRedirects(t *testing.T) {
	fx := newGatewayFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()

	fx.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCheckAnonymous(t *testing.T) {
	fx := newGatewayFixture(t)

	rec := getPath(t, fx.Handler, "/auth/check")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	// The user key is present and explicitly null for anonymous requests.
	require.Contains(t, body, "user")
	assert.Nil(t, body["user"])
}

func TestCheckAfterProviderRevocation(t *testing.T) {
	fx := newGatewayFixture(t)
	login := postJSON(t, fx.Handler, "/auth/login", `{"email":"stub.user@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, login.Code)
	sessionCookie := cookieByName(t, login, SessionCookieName)

	// The provider now rejects the token, e.g. after an admin revocation.
	fx.Provider.GetUserFunc = func(context.Context, string) (ports.User, error) {
		return ports.User{}, &ports.ProviderError{Status: http.StatusUnauthorized, Message: "invalid token"}
	}

	check := getPath(t, fx.Handler, "/auth/check", sessionCookie)
	require.Equal(t, http.StatusOK, check.Code)
	assert.Nil(t, decodeBody(t, check)["user"])

	// The teardown already happened, so a second check never reaches the
	// provider again.
	calls := fx.Provider.GetUserCalls
	again := getPath(t, fx.Handler, "/auth/check", sessionCookie)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Nil(t, decodeBody(t, again)["user"])
	assert.Equal(t, calls, fx.Provider.GetUserCalls)
}

func TestCheckFailsOpenOnProviderOutage(t *testing.T) {
	fx := newGatewayFixture(t)
	login := postJSON(t, fx.Handler, "/auth/login", `{"email":"stub.user@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, login.Code)
	sessionCookie := cookieByName(t, login, SessionCookieName)

	fx.Provider.GetUserFunc = func(context.Context, string) (ports.User, error) {
		return ports.User{}, io.ErrUnexpectedEOF
	}

	// The outage degrades the request to anonymous without a 5xx.
	check := getPath(t, fx.Handler, "/auth/check", sessionCookie)
	require.Equal(t, http.StatusOK, check.Code)
	assert.Nil(t, decodeBody(t, check)["user"])

	// Once the provider recovers the same cookie authenticates again.
	fx.Provider.GetUserFunc = nil
	recovered := getPath(t, fx.Handler, "/auth/check", sessionCookie)
	require.Equal(t, http.StatusOK, recovered.Code)
	assert.NotNil(t, decodeBody(t, recovered)["user"])
}
