package bootstrap

import (
	"context"
	"log/slog"

	"github.com/epharmacy/locator-web/config"
	"github.com/epharmacy/locator-web/internal/adapters/authroles"
	"github.com/epharmacy/locator-web/internal/adapters/devauth"
	"github.com/epharmacy/locator-web/internal/adapters/oidc"
	"github.com/epharmacy/locator-web/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	Sessions *service.SessionService
	Logger   *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid; the
// pages still work but nobody can sign in.
func BuildAuthService(ctx context.Context, cfg AuthConfig) *service.AuthService {
	if cfg.Sessions == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: session service not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	roleMapper := authroles.StaticRoleMapper{
		AdminGroup:         cfg.Auth.AdminGroup,
		PharmacyOwnerGroup: cfg.Auth.PharmacyOwnerGroup,
		CustomerGroup:      cfg.Auth.CustomerGroup,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthService(cfg, roleMapper)

	case config.AuthModeOAuth:
		return buildOAuthService(ctx, cfg, roleMapper)

	default:
		return nil
	}
}

func buildDevAuthService(cfg AuthConfig, roleMapper authroles.StaticRoleMapper) *service.AuthService {
	// Explicitly enabled dev auth mode; build a local provider.
	dev := cfg.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:          dev.UserID,
		Name:            dev.Name,
		Email:           dev.Email,
		Groups:          dev.Groups,
		SessionDuration: dev.SessionDuration,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("dev auth enabled; every login signs in the configured identity",
			"user_id", dev.UserID,
			"role", string(roleMapper.Map(dev.Groups)),
		)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: cfg.Sessions,
		Roles:    roleMapper,
	})
}

func buildOAuthService(ctx context.Context, cfg AuthConfig, roleMapper authroles.StaticRoleMapper) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: cfg.Sessions,
		Roles:    roleMapper,
	})
}
