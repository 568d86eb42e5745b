package httpx

import (
	"context"

	domainauth "github.com/verdan/authgate/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type identityKey struct{}

// SetIdentityInContext returns a child context that carries the resolved identity.
// If identity is nil, the original ctx is returned unchanged.
func SetIdentityInContext(ctx context.Context, identity *domainauth.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the resolved identity from context and a boolean
// indicating presence. An absent identity means the request is anonymous.
func IdentityFromContext(ctx context.Context) (*domainauth.Identity, bool) {
	if identity, ok := ctx.Value(identityKey{}).(*domainauth.Identity); ok && identity != nil {
		return identity, true
	}
	return nil, false
}

// IsAnonymous reports whether the current request context carries no identity.
func IsAnonymous(ctx context.Context) bool {
	_, ok := IdentityFromContext(ctx)
	return !ok
}
