package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	locator "github.com/epharmacy/locator-web"
	"github.com/epharmacy/locator-web/internal/service"
)

const (
	// TemplatePathFromRoot is where templates live on disk in dev mode.
	TemplatePathFromRoot = "web/templates"
	// StaticPathFromRoot is where static assets live on disk in dev mode.
	StaticPathFromRoot = "web/static"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          AuthServiceInterface
	Sessions      *service.SessionService
	Store         Pinger // readiness check target (optional)
	CookieDomain  string
	ClientTTL     time.Duration   // client_id cookie lifetime
	AuthRateLimit RateLimitConfig // applied to /auth/login and /auth/callback
	IsDev         bool            // Development mode: templates and assets from disk
	Logger        *slog.Logger
}

// NewRouter creates and configures the HTTP router: client identity and CSRF
// middleware around the guarded pages, auth endpoints and health checks.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if services.Sessions == nil {
		return nil, errors.New("router: Sessions is required")
	}

	templateFS, staticFS, err := webFS(services.IsDev)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	guards := &Guards{Sessions: services.Sessions, Logger: logger}
	pages := &PageHandlers{T: tr, Logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /readyz", readyHandler(services.Store, logger))
	mux.Handle("GET /static/", staticHandler(staticFS, services.IsDev))

	if services.Auth != nil {
		authHandlers := &AuthHandlers{
			Svc:          services.Auth,
			Sessions:     services.Sessions,
			CookieDomain: services.CookieDomain,
			ClientTTL:    services.ClientTTL,
			Logger:       logger,
		}
		registerAuthRoutes(mux, authHandlers, RateLimit(services.AuthRateLimit, IPKeyExtractor, logger))
	}

	for _, pr := range pageRoutes(guards) {
		mux.Handle(pr.Pattern, pr.Guard(pages.Show(pr.Page, pr.Title)))
	}
	mux.Handle("/", guards.Unprotected(true)(http.HandlerFunc(pages.NotFound)))

	var handler http.Handler = mux
	handler = CSRFProtection(services.CookieDomain)(handler)
	handler = ClientIdentity(ClientIdentityConfig{
		CookieDomain: services.CookieDomain,
		MaxAge:       services.ClientTTL,
	})(handler)
	return handler, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limit func(http.Handler) http.Handler) {
	mux.Handle("GET /auth/login", limit(http.HandlerFunc(h.Login)))
	mux.Handle("GET /auth/callback", limit(http.HandlerFunc(h.Callback)))
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /api/session", h.Status)
}

// webFS picks the template and static filesystems: disk in dev mode for hot
// reloading, the embedded copies otherwise.
func webFS(isDev bool) (fs.FS, fs.FS, error) {
	if isDev {
		return os.DirFS(TemplatePathFromRoot), os.DirFS(StaticPathFromRoot), nil
	}
	templateFS, err := fs.Sub(locator.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("templates sub-filesystem: %w", err)
	}
	staticFS, err := fs.Sub(locator.StaticFS, StaticPathFromRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("static sub-filesystem: %w", err)
	}
	return templateFS, staticFS, nil
}

// staticHandler serves /static/ with cache headers; dev assets are never cached.
func staticHandler(fsys fs.FS, isDev bool) http.Handler {
	files := http.StripPrefix("/static/", http.FileServerFS(fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		files.ServeHTTP(w, r)
	})
}
