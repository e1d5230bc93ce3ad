package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/epharmacy/locator-web/config"
	httpx "github.com/epharmacy/locator-web/internal/http"
	"github.com/epharmacy/locator-web/internal/service"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Auth     *service.AuthService // nil disables the /auth endpoints
	Sessions *service.SessionService
	Store    httpx.Pinger
	Logger   *slog.Logger
}

// NewHTTPServer builds the router and middleware chain and returns an
// unstarted server.
func NewHTTPServer(cfg HTTPServerConfig) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Sessions:     cfg.Sessions,
		Store:        cfg.Store,
		CookieDomain: appCfg.HTTP.CookieDomain,
		ClientTTL:    appCfg.Store.StateTTL,
		AuthRateLimit: httpx.RateLimitConfig{
			RequestsPerWindow: appCfg.Auth.RateLimit.Requests,
			Window:            appCfg.Auth.RateLimit.Window,
			Burst:             appCfg.Auth.RateLimit.Burst,
		},
		IsDev:  appCfg.IsDev,
		Logger: logger,
	}
	// Assigned only when set so the interface is nil rather than a typed nil.
	if cfg.Auth != nil {
		services.Auth = cfg.Auth
	}

	handler, err := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: services,
		HTTP:     appCfg.HTTP,
	})
	if err != nil {
		return nil, err
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	HTTP     config.HTTPConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	router, err := httpx.NewRouter(cfg.Services)
	if err != nil {
		return nil, err
	}

	// Apply compression middleware first (innermost) so logging captures compressed sizes
	// Order: Recover -> Logging -> Compression -> Router
	h := router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel, Logger: cfg.Logger})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h, nil
}
