// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the auth ports. The mocks are generated using go:generate directives and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	provider := mocks.NewMockProviderClient(ctrl)
//	provider.EXPECT().GetUser(gomock.Any(), "token").Return(user, nil)
package mocks

// Generate mock for ProviderClient interface from internal/ports.
// This creates MockProviderClient with methods for all ProviderClient
// interface methods: SignUp, SignInWithPassword, GetUser.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=provider_client_mock.go github.com/verdan/authgate/internal/ports ProviderClient
