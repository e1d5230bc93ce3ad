package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/epharmacy/locator-web/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.Bool("htmx", IsHTMX(r)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientCookieName names the cookie that identifies a browser's state namespace.
const ClientCookieName = "client_id"

// ClientIdentityConfig configures the ClientIdentity middleware.
type ClientIdentityConfig struct {
	CookieDomain string
	MaxAge       time.Duration // cookie lifetime; should match the store's state TTL
}

// ClientIdentity reads the client_id cookie, issuing a fresh one when it is
// missing or not an ID we could have issued, and puts the ID in the request context.
func ClientIdentity(cfg ClientIdentityConfig) func(http.Handler) http.Handler {
	cookies := cookieWriter{Domain: cfg.CookieDomain}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(ClientCookieName); err == nil && service.ValidClientID(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = service.NewClientID()
				cookies.set(w, r, cookieParams{Name: ClientCookieName, Value: id, MaxAge: cfg.MaxAge})
			}
			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

// cookieWriter sets and clears cookies with consistent attributes.
type cookieWriter struct {
	Domain string
}

type cookieParams struct {
	Name   string
	Value  string
	MaxAge time.Duration // zero makes a session cookie
}

func (c cookieWriter) set(w http.ResponseWriter, r *http.Request, p cookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    p.Value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(p.MaxAge.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes used when setting it.
func (c cookieWriter) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest reports HTTPS directly or via X-Forwarded-Proto, which may
// carry a comma-separated list.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// navigate sends the browser to target: Hx-Redirect for htmx requests,
// 303 See Other otherwise.
func navigate(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// loginURL builds the login page URL that returns to from after sign-in.
func loginURL(loginPath, from string) string {
	u := url.URL{Path: loginPath}
	if from != "" {
		q := url.Values{}
		q.Set("redirect_uri", from)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
