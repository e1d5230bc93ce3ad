package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"epharmacy"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"epharmacy"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID          string        `env:"USER_ID"          envDefault:"dev-user"`
	Name            string        `env:"NAME"             envDefault:"Dev User"`
	Email           string        `env:"EMAIL"            envDefault:"dev@example.com"`
	Groups          []string      `env:"GROUPS"           envDefault:"customers" envSeparator:";"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Identity provider groups mapped to the three roles.
	AdminGroup         string `env:"ADMIN_GROUP"          envDefault:"admins"`
	PharmacyOwnerGroup string `env:"PHARMACY_OWNER_GROUP" envDefault:"pharmacy-owners"`
	CustomerGroup      string `env:"CUSTOMER_GROUP"       envDefault:"customers"`

	// RateLimit throttles /auth/login and /auth/callback per client IP.
	RateLimit RateLimitConfig `envPrefix:"AUTH_RATE_LIMIT_"`
}

// Sanitize trims group names and clamps the dev session duration.
func (a *AuthConfig) Sanitize() {
	a.AdminGroup = strings.TrimSpace(a.AdminGroup)
	a.PharmacyOwnerGroup = strings.TrimSpace(a.PharmacyOwnerGroup)
	a.CustomerGroup = strings.TrimSpace(a.CustomerGroup)
	if a.DevAuth.SessionDuration <= 0 {
		a.DevAuth.SessionDuration = 8 * time.Hour
	}
	a.RateLimit.Sanitize()
}

// RateLimitConfig allows Requests per Window with an extra Burst.
// Requests=0 disables limiting.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS" envDefault:"20"`
	Window   time.Duration `env:"WINDOW"   envDefault:"1m"`
	Burst    int           `env:"BURST"    envDefault:"10"`
}

// Sanitize disables limiting on non-positive values.
func (r *RateLimitConfig) Sanitize() {
	if r.Requests < 0 {
		r.Requests = 0
	}
	if r.Window <= 0 {
		r.Window = time.Minute
	}
	if r.Burst < 0 {
		r.Burst = 0
	}
}
