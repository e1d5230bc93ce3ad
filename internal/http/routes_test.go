package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/epharmacy/locator-web/internal/adapters/memory"
	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	authmocks "github.com/epharmacy/locator-web/internal/mocks/auth"
	"github.com/epharmacy/locator-web/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newTestRouterServer(t *testing.T, groups ...string) (*browser, *memory.ClientStore) {
	t.Helper()
	store := memory.NewClientStore()
	sessions := service.NewSessionService(service.SessionServiceOptions{Store: store})
	provider := authmocks.NewMockAuthProvider()
	if len(groups) > 0 {
		provider.DefaultUser.Groups = groups
	}
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Roles: authmocks.StaticRoleMapper{
			AdminGroup:         "admins",
			PharmacyOwnerGroup: "owners",
			CustomerGroup:      "customers",
		},
	})

	handler, err := NewRouter(RouterServices{
		Auth:     authSvc,
		Sessions: sessions,
		Store:    store,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &browser{t: t, srv: srv, client: client}, store
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string, headers ...string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.srv.URL+path, nil)
	require.NoError(b.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return b.do(req)
}

func (b *browser) post(path string, headers ...string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.srv.URL+path, strings.NewReader(""))
	require.NoError(b.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return b.do(req)
}

func (b *browser) cookie(name string) string {
	u, _ := url.Parse(b.srv.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// login walks the full OAuth round trip starting from a protected path.
func (b *browser) login(from string) *http.Response {
	b.t.Helper()
	resp, _ := b.get("/auth/login?redirect_uri=" + url.QueryEscape(from))
	require.Equal(b.t, http.StatusFound, resp.StatusCode)
	state := b.cookie("oauth_state")
	require.NotEmpty(b.t, state)

	resp, _ = b.get("/auth/callback?code=abc&state=" + url.QueryEscape(state))
	require.Equal(b.t, http.StatusFound, resp.StatusCode)
	return resp
}

func TestRouter_RequiresSessions(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	require.Error(t, err)
}

func TestRouter_LoginFlow(t *testing.T) {
	b, store := newTestRouterServer(t)

	// Anonymous visit to a dashboard is sent to the login page.
	resp, _ := b.get("/customer")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?redirect_uri=%2Fcustomer", resp.Header.Get("Location"))
	anonID := b.cookie(ClientCookieName)
	require.NotEmpty(t, anonID)

	resp, body := b.get("/login?redirect_uri=%2Fcustomer")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "/auth/login?redirect_uri=%2fcustomer")

	resp = b.login("/customer")
	assert.Equal(t, "/customer", resp.Header.Get("Location"))

	newID := b.cookie(ClientCookieName)
	assert.NotEqual(t, anonID, newID, "login must rotate the client id")
	_, err := store.Get(t.Context(), anonID, domainauth.KeyLastVisitedPath)
	assert.Error(t, err, "anonymous state is dropped at login")

	resp, body = b.get("/customer")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome back, Mock User")
	assert.Contains(t, body, "Sign out")

	// The login page now sends the client back where it was.
	resp, _ = b.get("/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/customer", resp.Header.Get("Location"))

	resp, body = b.get("/api/session")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		Authenticated   bool             `json:"authenticated"`
		User            *domainauth.User `json:"user"`
		LastVisitedPath string           `json:"last_visited_path"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.User)
	assert.Equal(t, domainauth.RoleCustomer, status.User.Role)
	assert.Equal(t, "/customer", status.LastVisitedPath)
}

func TestRouter_RoleDenialDoesNotLoop(t *testing.T) {
	b, _ := newTestRouterServer(t)
	b.login("/customer")

	resp, _ := b.get("/admin")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loginURL := resp.Header.Get("Location")
	assert.Equal(t, "/login?redirect_uri=%2Fadmin", loginURL)

	resp, _ = b.get(loginURL)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/customer", resp.Header.Get("Location"))
}

func TestRouter_RoleHomes(t *testing.T) {
	tests := []struct {
		group string
		home  string
	}{
		{"admins", "/admin"},
		{"owners", "/pharmacy-owner"},
		{"customers", "/customer"},
		{"visitors", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			b, _ := newTestRouterServer(t, tt.group)
			b.login("/")

			resp, _ := b.get("/signup")
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tt.home, resp.Header.Get("Location"))

			if tt.home != "/" {
				resp, _ = b.get(tt.home)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		})
	}
}

func TestRouter_Logout(t *testing.T) {
	b, _ := newTestRouterServer(t)
	b.login("/customer")
	b.get("/customer")

	resp, _ := b.post("/auth/logout")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "logout without a CSRF token is rejected")

	resp, _ = b.post("/auth/logout", CSRFHeaderName, b.cookie(CSRFCookieName))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = b.get("/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "logout clears the last visited path too")

	resp, _ = b.get("/customer")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestRouter_PublicPages(t *testing.T) {
	b, _ := newTestRouterServer(t)

	for _, path := range []string{"/", "/terms", "/login", "/signup"} {
		resp, _ := b.get(path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	b.login("/customer")
	for _, path := range []string{"/", "/terms"} {
		resp, _ := b.get(path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "bypass page %s", path)
	}
}

func TestRouter_NotFound(t *testing.T) {
	b, _ := newTestRouterServer(t)

	resp, body := b.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestRouter_HTMXGetsContentOnly(t *testing.T) {
	b, _ := newTestRouterServer(t)

	resp, body := b.get("/terms", "HX-Request", "true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "<!doctype html>")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), `<main id="content"`))

	resp, _ = b.get("/admin", "HX-Request", "true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login?redirect_uri=%2Fadmin", resp.Header.Get("Hx-Redirect"))
}

func TestRouter_HealthEndpoints(t *testing.T) {
	b, _ := newTestRouterServer(t)

	resp, _ := b.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = b.get("/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = b.get("/static/css/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
}

func TestRouter_CookielessDenialsExpire(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewClientStoreWithClock(clock)
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store:        store,
		AnonymousTTL: 15 * time.Minute,
		Now:          clock,
	})
	handler, err := NewRouter(RouterServices{Sessions: sessions, Store: store})
	require.NoError(t, err)

	const visits = 1000
	for range visits {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	n, err := store.PurgeExpired(t.Context(), now.Add(14*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n, "denied visits are remembered until the anonymous TTL lapses")

	n, err = store.PurgeExpired(t.Context(), now.Add(16*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(visits), n)

	n, err = store.PurgeExpired(t.Context(), now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}
