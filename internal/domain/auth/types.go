// Package auth contains domain-level types for sessions and identity.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// State names the gateway's per-request evaluation states. The terminal
// outcome of a request is always either anonymous or authenticated; State
// records which branch of the protocol produced it.
type State string

const (
	// StateNoSession means no session record exists for the request.
	StateNoSession State = "no-session"
	// StateUnverified means the locally cached identity was used (or no
	// identity was available) without a provider round-trip.
	StateUnverified State = "unverified-cached"
	// StateVerified means the provider confirmed the access token.
	StateVerified State = "verified"
	// StateTornDown means the provider rejected the token and the session
	// record was destroyed.
	StateTornDown State = "torn-down"
)

// Identity is the request-scoped result of the gateway's evaluation.
// It is derived fresh on every request and never persisted.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Session is the server-side record we persist per opaque session ID.
// ID is an opaque session identifier (random UUID) carried in a cookie.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	// AccessToken is the provider-issued bearer token from login and the
	// sole credential used to revalidate the identity. A record without
	// one is an "unverified" session.
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken and TokenExpiresAt are stored renewal material. No
	// refresh protocol exists; a rejected access token tears the session
	// down rather than attempting renewal.
	RefreshToken   string    `json:"refresh_token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at"`

	// ExpiresAt is the server-side session expiry (cookie lifetime).
	ExpiresAt time.Time `json:"expires_at"`
}

// HasCachedIdentity reports whether the record carries enough locally
// stored identity to serve the unverified fallback.
func (s Session) HasCachedIdentity() bool {
	return s.UserID != "" && s.Email != ""
}

// CachedIdentity returns the locally stored identity pair.
func (s Session) CachedIdentity() Identity {
	return Identity{UserID: s.UserID, Email: s.Email}
}

// Expired reports whether the session record itself has expired.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
