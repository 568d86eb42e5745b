// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/verdan/authgate/internal/domain/auth"
	"github.com/verdan/authgate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.ProviderClient = (*StubProviderClient)(nil)
	_ ports.SessionStore   = (*FlakySessionStore)(nil)
)

// StubProviderClient simulates the identity provider with overridable
// behavior per call. The zero value answers every call successfully with
// DefaultUser and DefaultSession, and counts calls for "no remote call"
// assertions.
type StubProviderClient struct {
	SignUpFunc  func(ctx context.Context, in ports.SignUpInput) (ports.User, error)
	SignInFunc  func(ctx context.Context, email, password string) (ports.User, ports.ProviderSession, error)
	GetUserFunc func(ctx context.Context, accessToken string) (ports.User, error)

	DefaultUser    ports.User
	DefaultSession ports.ProviderSession

	mu           sync.Mutex
	SignUpCalls  int
	SignInCalls  int
	GetUserCalls int
}

// NewStubProviderClient creates a stub with a deterministic default user
// and token material.
func NewStubProviderClient() *StubProviderClient {
	return &StubProviderClient{
		DefaultUser: ports.User{ID: "stub-user-1", Email: "stub.user@example.com"},
		DefaultSession: ports.ProviderSession{
			AccessToken:  "stub-access-token",
			RefreshToken: "stub-refresh-token",
		},
	}
}

func (m *StubProviderClient) SignUp(ctx context.Context, in ports.SignUpInput) (ports.User, error) {
	m.count(&m.SignUpCalls)
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, in)
	}
	return m.DefaultUser, nil
}

func (m *StubProviderClient) SignInWithPassword(ctx context.Context, email, password string) (ports.User, ports.ProviderSession, error) {
	m.count(&m.SignInCalls)
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	return m.DefaultUser, m.DefaultSession, nil
}

func (m *StubProviderClient) GetUser(ctx context.Context, accessToken string) (ports.User, error) {
	m.count(&m.GetUserCalls)
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, accessToken)
	}
	return m.DefaultUser, nil
}

func (m *StubProviderClient) count(n *int) {
	m.mu.Lock()
	*n++
	m.mu.Unlock()
}

// FlakySessionStore wraps error injection around an inner store, for
// exercising store-failure paths. Nil funcs delegate to the inner store.
type FlakySessionStore struct {
	Inner      ports.SessionStore
	SaveFunc   func(ctx context.Context, sess domainauth.Session) error
	GetFunc    func(ctx context.Context, id string) (domainauth.Session, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (f *FlakySessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if f.SaveFunc != nil {
		return f.SaveFunc(ctx, sess)
	}
	if f.Inner == nil {
		return errors.New("no inner store")
	}
	return f.Inner.Save(ctx, sess)
}

func (f *FlakySessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, id)
	}
	if f.Inner == nil {
		return domainauth.Session{}, errors.New("no inner store")
	}
	return f.Inner.Get(ctx, id)
}

func (f *FlakySessionStore) Delete(ctx context.Context, id string) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	if f.Inner == nil {
		return errors.New("no inner store")
	}
	return f.Inner.Delete(ctx, id)
}
