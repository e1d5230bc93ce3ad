package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	Logout(ctx context.Context, clientID string) error
}

const (
	oauthStateCookie   = "oauth_state"
	oauthNonceCookie   = "oauth_nonce"
	postLoginCookie    = "post_login_redirect"
	oauthCookieMaxAge  = 10 * time.Minute
	defaultClientTTL   = 30 * 24 * time.Hour
	defaultAfterLogout = domainauth.LoginPath
)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Sessions     SessionReader
	CookieDomain string
	ClientTTL    time.Duration // lifetime of the client_id cookie issued at login
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() cookieWriter { return cookieWriter{Domain: h.CookieDomain} }

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := ""
	if raw := r.URL.Query().Get("redirect_uri"); raw != "" {
		redirectURI = safeRedirectPath(raw)
	}

	result, err := h.Svc.BeginLogin(r.Context(), firstNonEmpty(redirectURI, "/"))
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start login"),
		})
		return
	}

	c := h.cookies()
	c.set(w, r, cookieParams{Name: oauthStateCookie, Value: result.State, MaxAge: oauthCookieMaxAge})
	c.set(w, r, cookieParams{Name: oauthNonceCookie, Value: result.Nonce, MaxAge: oauthCookieMaxAge})
	if redirectURI != "" {
		c.set(w, r, cookieParams{Name: postLoginCookie, Value: redirectURI, MaxAge: oauthCookieMaxAge})
	} else {
		c.clear(w, r, postLoginCookie)
	}

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil || nonceCookie.Value == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		ClientID: ClientIDFromContext(r.Context()),
		Code:     code,
		State:    state,
		Nonce:    nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("unable to complete login"),
		})
		return
	}

	h.logger().InfoContext(r.Context(), "login completed",
		"user_id", result.Record.User.ID,
		"role", string(result.Record.Role()),
	)

	c := h.cookies()
	ttl := h.ClientTTL
	if ttl <= 0 {
		ttl = defaultClientTTL
	}
	c.set(w, r, cookieParams{Name: ClientCookieName, Value: result.ClientID, MaxAge: ttl})
	c.clear(w, r, oauthStateCookie)
	c.clear(w, r, oauthNonceCookie)

	http.Redirect(w, r, h.postLoginRedirect(w, r), http.StatusFound)
}

// postLoginRedirect returns where to go after login and clears the cookie.
// Without a saved destination the login page decides, via its guard.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	target := domainauth.LoginPath
	if c, err := r.Cookie(postLoginCookie); err == nil {
		if c.Value != "" {
			target = safeRedirectPath(c.Value)
		}
		h.cookies().clear(w, r, postLoginCookie)
	}
	return target
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context(), ClientIDFromContext(r.Context())); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": defaultAfterLogout,
		})
		return
	}
	http.Redirect(w, r, defaultAfterLogout, http.StatusSeeOther)
}

// sessionStatus is the body of GET /api/session.
type sessionStatus struct {
	Authenticated   bool             `json:"authenticated"`
	User            *domainauth.User `json:"user,omitempty"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
	LastVisitedPath string           `json:"last_visited_path,omitempty"`
}

// Status returns the current authentication status.
// GET /api/session.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := ClientIDFromContext(ctx)
	rec := h.Sessions.Load(ctx, clientID)

	body := sessionStatus{Authenticated: rec.Authenticated}
	if rec.Authenticated {
		body.User = rec.User
		if !rec.ExpiresAt.IsZero() {
			exp := rec.ExpiresAt
			body.ExpiresAt = &exp
		}
		body.LastVisitedPath = h.Sessions.LastVisited(ctx, clientID)
	}
	WriteJSON(w, http.StatusOK, body)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		IsHTMX(r) ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
