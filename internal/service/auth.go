package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
	"github.com/google/uuid"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions *SessionService
	Roles    ports.RoleMapper
}

// AuthService orchestrates authentication flows by coordinating provider, role mapping, and session persistence.
type AuthService struct {
	provider ports.AuthProvider
	sessions *SessionService
	roles    ports.RoleMapper
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		roles:    opts.Roles,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	ClientID string // client the login started from; may be empty
	Code     string
	State    string
	Nonce    string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	// ClientID is the freshly issued client identifier the record was saved under.
	ClientID string
	Record   domainauth.Record
}

// CompleteLogin exchanges the code for an identity, maps it to a role and
// persists an authenticated record under a new client ID. The previous client's
// last visited path is carried over and its state dropped.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	rec := domainauth.Record{
		Authenticated: true,
		User: &domainauth.User{
			ID:    identity.UserID,
			Name:  identity.Name,
			Email: identity.Email,
			Role:  s.roles.Map(identity.Groups),
		},
		ExpiresAt: identity.ExpiresAt,
	}

	clientID := NewClientID()
	if err = s.sessions.Save(ctx, clientID, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if input.ClientID != "" {
		if last := s.sessions.LastVisited(ctx, input.ClientID); last != "" {
			if err = s.sessions.RecordVisit(ctx, clientID, last); err != nil {
				return nil, fmt.Errorf("carry last visited path: %w", err)
			}
		}
		if err = s.sessions.Clear(ctx, input.ClientID); err != nil {
			return nil, fmt.Errorf("drop previous client state: %w", err)
		}
	}

	return &CompleteLoginResult{ClientID: clientID, Record: rec}, nil
}

// Logout clears the client's session record and last visited path.
func (s *AuthService) Logout(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil // Nothing to logout
	}
	return s.sessions.Clear(ctx, clientID)
}

// NewClientID creates a cryptographically secure random client identifier.
func NewClientID() string {
	return uuid.New().String()
}

// ValidClientID reports whether id looks like an identifier issued by NewClientID.
func ValidClientID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4 && u.String() == id
}
