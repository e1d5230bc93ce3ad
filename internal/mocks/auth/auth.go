package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"slices"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.RoleMapper   = (*StaticRoleMapper)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID: "mock-user-1",
		Name:   "Mock User",
		Email:  "mock.user@example.com",
		Groups: []string{"customers"},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL,
		fmt.Sprintf("%s-%d", statePrefix, m.callCount),
		fmt.Sprintf("%s-%d", noncePrefix, m.callCount),
		nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default user with a fresh expiration time
	user := m.DefaultUser
	if user.UserID == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// StaticRoleMapper maps groups by simple string membership rules.
// Admin wins over PharmacyOwner, which wins over Customer.
type StaticRoleMapper struct {
	AdminGroup         string
	PharmacyOwnerGroup string
	CustomerGroup      string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	switch {
	case m.AdminGroup != "" && slices.Contains(groups, m.AdminGroup):
		return domainauth.RoleAdmin
	case m.PharmacyOwnerGroup != "" && slices.Contains(groups, m.PharmacyOwnerGroup):
		return domainauth.RolePharmacyOwner
	case m.CustomerGroup != "" && slices.Contains(groups, m.CustomerGroup):
		return domainauth.RoleCustomer
	default:
		return ""
	}
}
