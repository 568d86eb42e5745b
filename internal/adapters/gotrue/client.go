// Package gotrue provides the ProviderClient adapter for a GoTrue-compatible
// identity provider (e.g. Supabase Auth). The provider is treated as an
// opaque remote authority: this client only issues the three calls the
// gateway protocol needs and maps provider error bodies to ports.ProviderError.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verdan/authgate/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.ProviderClient = (*Client)(nil)

// Config holds configuration for the provider client.
type Config struct {
	// BaseURL is the provider root, e.g. "https://xyz.supabase.co".
	BaseURL string

	// APIKey is sent as the apikey header on every call. Lifecycle clients
	// use the anon key; the revalidation client uses the service-role key.
	APIKey string

	HTTPClient *http.Client  // Optional, defaults to a 30s-timeout client
	Timeout    time.Duration // Used when HTTPClient is nil
}

// Client issues REST calls against a GoTrue-compatible auth API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a provider client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("provider base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("provider API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// userPayload is the provider's user object; only the fields the gateway
// consumes are decoded.
type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u userPayload) toUser() ports.User {
	return ports.User{ID: u.ID, Email: u.Email}
}

// SignUp registers a new account. The confirmation email links back to
// in.EmailRedirectTo; no tokens are issued until that step completes.
func (c *Client) SignUp(ctx context.Context, in ports.SignUpInput) (ports.User, error) {
	endpoint := c.baseURL + "/auth/v1/signup"
	if in.EmailRedirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(in.EmailRedirectTo)
	}

	body := map[string]string{"email": in.Email, "password": in.Password}
	var payload struct {
		userPayload
		// Confirmation-disabled deployments return the user nested in a
		// session payload instead.
		User *userPayload `json:"user"`
	}
	if err := c.postJSON(ctx, endpoint, body, &payload); err != nil {
		return ports.User{}, err
	}

	if payload.User != nil {
		return payload.User.toUser(), nil
	}
	return payload.toUser(), nil
}

// SignInWithPassword exchanges credentials for a provider session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (ports.User, ports.ProviderSession, error) {
	endpoint := c.baseURL + "/auth/v1/token?grant_type=password"

	body := map[string]string{"email": email, "password": password}
	var payload struct {
		AccessToken  string       `json:"access_token"`
		RefreshToken string       `json:"refresh_token"`
		ExpiresIn    int64        `json:"expires_in"`
		ExpiresAt    int64        `json:"expires_at"`
		User         *userPayload `json:"user"`
	}
	if err := c.postJSON(ctx, endpoint, body, &payload); err != nil {
		return ports.User{}, ports.ProviderSession{}, err
	}

	sess := ports.ProviderSession{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    tokenExpiry(payload.ExpiresAt, payload.ExpiresIn),
	}
	if payload.User == nil {
		return ports.User{}, sess, nil
	}
	return payload.User.toUser(), sess, nil
}

// GetUser asks the provider whether the access token still identifies a
// live account. The bearer header is injected by an oauth2 static token
// source; the apikey header rides alongside it.
func (c *Client) GetUser(ctx context.Context, accessToken string) (ports.User, error) {
	if accessToken == "" {
		return ports.User{}, errors.New("access token is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return ports.User{}, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := authed.Do(req)
	if err != nil {
		return ports.User{}, fmt.Errorf("get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.User{}, decodeProviderError(resp)
	}

	var payload userPayload
	if decErr := json.NewDecoder(resp.Body).Decode(&payload); decErr != nil {
		return ports.User{}, fmt.Errorf("decode user response: %w", decErr)
	}
	return payload.toUser(), nil
}

// postJSON performs a JSON POST and decodes a 2xx response into out.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeProviderError(resp)
	}

	if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
		return fmt.Errorf("decode provider response: %w", decErr)
	}
	return nil
}

// errorBody covers the error shapes GoTrue deployments emit across versions.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	ErrorField       string `json:"error"`
}

func (e errorBody) message() string {
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.ErrorField, e.ErrorCode} {
		if m != "" {
			return m
		}
	}
	return ""
}

// decodeProviderError maps a non-2xx provider response to ports.ProviderError
// so callers can surface the provider's status and message verbatim.
func decodeProviderError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	msg := body.message()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &ports.ProviderError{Status: resp.StatusCode, Message: msg}
}

func tokenExpiry(expiresAt, expiresIn int64) time.Time {
	if expiresAt > 0 {
		return time.Unix(expiresAt, 0)
	}
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}
