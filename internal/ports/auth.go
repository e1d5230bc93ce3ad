package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ClientStore persists small string values in a per-client namespace,
// the server-side stand-in for browser local storage.
// Get returns ErrNotFound when the key is absent or its namespace has expired.
// Set moves the expiry of the whole namespace to ttl from now; a non-positive
// ttl keeps it until deleted.
type ClientStore interface {
	Get(ctx context.Context, clientID, key string) (string, error)
	Set(ctx context.Context, clientID, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, clientID string, keys ...string) error
}

// StateReaper removes client state whose namespace expired at or before now.
// Backends without native expiry implement it.
type StateReaper interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

// ErrNotFound is returned by ClientStore implementations when a key is absent.
var ErrNotFound error = notFoundError{}
