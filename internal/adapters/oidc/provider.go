package oidc

// Package oidc provides the OIDC/OAuth2 login adapter for the locator web gateway.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
	"golang.org/x/oauth2"
)

// Provider implements ports.AuthProvider using OIDC discovery and the
// authorization code flow.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a client with a 30s timeout
}

// DiscoveryDocument is the subset of the OIDC discovery document the provider reads.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider, fetching the discovery document once.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri comes from the configured RedirectURL and must match the IdP registration.
	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	fields, err := p.extractFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}

	if fields.userID == "" || fields.email == "" || len(fields.groups) == 0 {
		claims, uiErr := p.getUserInfo(ctx, token)
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		fillFromClaims(&fields, claims)
	}
	if fields.userID == "" {
		return domainauth.Identity{}, errors.New("identity has no subject")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return domainauth.Identity{
		UserID:    fields.userID,
		Name:      fields.name,
		Email:     fields.email,
		Groups:    fields.groups,
		ExpiresAt: expiresAt,
	}, nil
}

// standardClaims covers the ID token and userinfo claims we map. Group
// membership may arrive as "groups" or "roles" depending on the IdP.
type standardClaims struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name"`
	GivenName         string   `json:"given_name"`
	FamilyName        string   `json:"family_name"`
	Email             string   `json:"email"`
	Groups            []string `json:"groups"`
	Roles             []string `json:"roles"`
	Nonce             string   `json:"nonce"`
}

type idFields struct {
	userID string
	name   string
	email  string
	groups []string
}

func (p *Provider) extractFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idFields, error) {
	var f idFields
	if !slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		return f, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return f, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return f, fmt.Errorf("verify id_token: %w", err)
	}
	var claims standardClaims
	if err = idTok.Claims(&claims); err != nil {
		return f, fmt.Errorf("parse id_token claims: %w", err)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return f, errors.New("invalid nonce")
	}
	fillFromClaims(&f, claims)
	return f, nil
}

func (p *Provider) getUserInfo(ctx context.Context, tok *oauth2.Token) (standardClaims, error) {
	var claims standardClaims
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return claims, fmt.Errorf("fetch user info: %w", err)
	}
	if err = ui.Claims(&claims); err != nil {
		return claims, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

// fillFromClaims fills the empty fields of f from c; populated fields are kept.
func fillFromClaims(f *idFields, c standardClaims) {
	if f.userID == "" {
		f.userID = firstNonEmpty(c.PreferredUsername, c.Sub)
	}
	if f.name == "" {
		f.name = firstNonEmpty(c.Name, strings.TrimSpace(c.GivenName+" "+c.FamilyName))
	}
	if f.email == "" {
		f.email = c.Email
	}
	if len(f.groups) == 0 {
		f.groups = append(append([]string(nil), c.Groups...), c.Roles...)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
