// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"fmt"
	"time"

	domainauth "github.com/verdan/authgate/internal/domain/auth"
)

// User is the provider's view of an account. Only the stable ID and the
// email are load-bearing for the gateway.
type User struct {
	ID    string
	Email string
}

// ProviderSession carries the token material issued by the provider at login.
type ProviderSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SignUpInput groups parameters for a provider sign-up call.
type SignUpInput struct {
	Email    string
	Password string

	// EmailRedirectTo is the confirmation redirect target passed to the
	// provider for the out-of-band email verification step.
	EmailRedirectTo string
}

// ProviderClient is the remote identity authority. All three operations are
// remote and fallible; a deployment may have no client at all, and callers
// must treat that case distinctly from a failed call.
type ProviderClient interface {
	SignUp(ctx context.Context, in SignUpInput) (User, error)
	SignInWithPassword(ctx context.Context, email, password string) (User, ProviderSession, error)
	GetUser(ctx context.Context, accessToken string) (User, error)
}

// SessionStore persists and retrieves session records. All operations block
// until the backend acknowledges; in particular a returned Delete guarantees
// no subsequent Get observes the record.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// ErrSessionNotFound is returned by every SessionStore implementation when
// no live record exists for the given ID.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrSessionNotFound error = notFoundError{}

// ProviderError is a provider-reported failure. Status and Message are
// surfaced verbatim to API callers; transport-level failures are ordinary
// errors and never carry this type.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
}
