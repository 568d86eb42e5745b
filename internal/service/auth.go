package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/verdan/authgate/internal/domain/auth"
	"github.com/verdan/authgate/internal/observability/metrics"
	"github.com/verdan/authgate/internal/ports"
)

// ErrProviderNotConfigured is returned when an operation needs a provider
// client and none was configured for this deployment.
var ErrProviderNotConfigured = errors.New("identity provider is not configured")

// ErrInconsistentProvider is returned when the provider reports success but
// omits data its contract promises (a contract violation, not a user error).
var ErrInconsistentProvider = errors.New("provider returned success without expected data")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	// Provider authorizes lifecycle operations (signup, password login).
	// Nil means the endpoints respond 503.
	Provider ports.ProviderClient

	// Verifier authorizes per-request revalidation. Nil degrades the
	// gateway to the cached-identity fallback.
	Verifier ports.ProviderClient

	Sessions   ports.SessionStore
	SessionTTL time.Duration
	Metrics    *metrics.AuthMetrics // optional
}

// AuthService orchestrates the session lifecycle and the per-request
// revalidation protocol against the identity provider.
type AuthService struct {
	provider   ports.ProviderClient
	verifier   ports.ProviderClient
	sessions   ports.SessionStore
	sessionTTL time.Duration
	metrics    *metrics.AuthMetrics
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		provider:   opts.Provider,
		verifier:   opts.Verifier,
		sessions:   opts.Sessions,
		sessionTTL: ttl,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// SignUpInput groups parameters for a signup request.
type SignUpInput struct {
	Email      string
	Password   string
	RedirectTo string
}

// SignUp registers a new account with the provider. No local session is
// created: the account stays unconfirmed until the provider-side email
// confirmation completes out of band.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (ports.User, error) {
	if s.provider == nil {
		return ports.User{}, ErrProviderNotConfigured
	}

	user, err := s.provider.SignUp(ctx, ports.SignUpInput{
		Email:           in.Email,
		Password:        in.Password,
		EmailRedirectTo: in.RedirectTo,
	})
	if err != nil {
		return ports.User{}, fmt.Errorf("provider sign up: %w", err)
	}
	if user.ID == "" {
		return ports.User{}, ErrInconsistentProvider
	}

	if s.metrics != nil {
		s.metrics.IncrementSignups()
	}
	return user, nil
}

// LoginResult contains the persisted session created by a successful login.
type LoginResult struct {
	Session domainauth.Session
}

// Login exchanges credentials for a provider session and persists a session
// record under a freshly issued identifier. The record is durably saved
// before Login returns, so the caller's response can never race its own
// follow-up request.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	user, providerSess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("provider sign in: %w", err)
	}
	if user.ID == "" || providerSess.AccessToken == "" {
		return nil, ErrInconsistentProvider
	}

	sess := domainauth.Session{
		ID:             generateSessionID(),
		UserID:         user.ID,
		Email:          user.Email,
		AccessToken:    providerSess.AccessToken,
		RefreshToken:   providerSess.RefreshToken,
		TokenExpiresAt: providerSess.ExpiresAt,
		ExpiresAt:      s.now().Add(s.sessionTTL),
	}

	if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if s.metrics != nil {
		s.metrics.IncrementLogins()
	}
	return &LoginResult{Session: sess}, nil
}

// Resolution is the outcome of one gateway evaluation: which protocol state
// the request landed in and the identity (nil means anonymous).
type Resolution struct {
	State    domainauth.State
	Identity *domainauth.Identity
}

// Authenticated reports whether the resolution carries an identity.
func (r Resolution) Authenticated() bool { return r.Identity != nil }

// Resolve runs the per-request validation protocol for one session ID.
// It is the single transition function of the gateway state machine:
//
//	no session record          -> anonymous
//	no access token / verifier -> cached identity when present, else anonymous (no remote call)
//	provider confirms token    -> identity from the provider's fresh response
//	provider rejects token     -> session destroyed (awaited), anonymous
//
// A returned error never carries an identity; callers log it and proceed
// anonymously. Transport-level provider failures leave the record in place.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (Resolution, error) {
	if sessionID == "" {
		return Resolution{State: domainauth.StateNoSession}, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return Resolution{State: domainauth.StateNoSession}, nil
	}
	if err != nil {
		s.observe(metrics.RevalidationError)
		return Resolution{State: domainauth.StateNoSession}, fmt.Errorf("load session: %w", err)
	}

	if sess.AccessToken == "" || s.verifier == nil {
		res := Resolution{State: domainauth.StateUnverified}
		if sess.HasCachedIdentity() {
			id := sess.CachedIdentity()
			res.Identity = &id
		}
		s.observe(metrics.RevalidationCached)
		return res, nil
	}

	user, err := s.verifier.GetUser(ctx, sess.AccessToken)

	var providerErr *ports.ProviderError
	switch {
	case err == nil && user.ID != "":
		// Identity comes from the provider's fresh response, never the
		// cached record, so a provider-side email change is visible
		// immediately.
		s.observe(metrics.RevalidationVerified)
		return Resolution{
			State:    domainauth.StateVerified,
			Identity: &domainauth.Identity{UserID: user.ID, Email: user.Email},
		}, nil

	case err == nil || errors.As(err, &providerErr):
		// The provider answered and the token no longer identifies a live
		// account. Tear the record down before returning so nothing later
		// in this request can observe a half-destroyed session.
		s.observe(metrics.RevalidationTornDown)
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return Resolution{State: domainauth.StateTornDown},
				fmt.Errorf("destroy invalidated session: %w", deleteErr)
		}
		return Resolution{State: domainauth.StateTornDown}, nil

	default:
		// Transport-level failure: fail open to anonymous but keep the
		// record; a later request re-evaluates from scratch.
		s.observe(metrics.RevalidationError)
		return Resolution{State: domainauth.StateUnverified}, fmt.Errorf("revalidate session: %w", err)
	}
}

// Logout destroys the session record. It blocks until the store
// acknowledges the delete and is idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to log out
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementLogouts()
	}
	return nil
}

func (s *AuthService) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveRevalidation(result)
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// UUIDs are URL-safe and have good entropy.
	return uuid.New().String()
}
