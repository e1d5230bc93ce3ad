package devauth

// Package devauth provides a config-driven AuthProvider for local development
// so every dashboard can be exercised without a real IdP.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
)

// Config controls the dev auth provider behavior.
// UserID and Email are required; Name and Groups may be empty.
type Config struct {
	UserID          string
	Name            string
	Email           string
	Groups          []string
	SessionDuration time.Duration    // default 8h when zero
	Now             func() time.Time // default time.Now
}

// Provider implements ports.AuthProvider for local development.
// Begin points the browser straight back at our callback with locally
// generated state; Exchange ignores the code and returns the configured identity.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
	now             func() time.Time

	mu sync.Mutex
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = 8 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID: cfg.UserID,
			Name:   cfg.Name,
			Email:  cfg.Email,
			Groups: append([]string(nil), cfg.Groups...),
		},
		sessionDuration: dur,
		now:             now,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken(18)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(18)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{}
	q.Set("code", "dev")
	q.Set("state", state)
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange returns the dev identity with a fresh expiry.
// Validation of code/state/nonce is left to the HTTP handler.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	id.ExpiresAt = p.now().Add(p.sessionDuration)
	return id, nil
}

func randomToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
