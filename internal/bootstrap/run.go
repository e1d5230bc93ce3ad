package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/epharmacy/locator-web/config"
	"github.com/epharmacy/locator-web/internal/service"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// RunConfig groups inputs for Run.
type RunConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// Run connects the client state backend, then runs the enabled services until
// SIGINT/SIGTERM or the first service failure, and shuts down gracefully.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Config == nil {
		return errors.New("run config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateServiceConfig(cfg.Config); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bundle, err := BuildClientStore(ctx, StoreDeps{Config: cfg.Config, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := bundle.Close(); cerr != nil {
			logger.Error("close client store failed", "error", cerr)
		}
	}()

	return runServices(ctx, cfg.Config, bundle, logger)
}

func runServices(ctx context.Context, cfg *config.AppConfig, bundle *StoreBundle, logger *slog.Logger) error {
	enabled, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		sessions := service.NewSessionService(service.SessionServiceOptions{
			Store:        bundle.Store,
			StateTTL:     cfg.Store.StateTTL,
			AnonymousTTL: cfg.Store.AnonymousTTL,
			Logger:       logger,
		})
		server, serr := NewHTTPServer(HTTPServerConfig{
			Config:   cfg,
			Auth:     BuildAuthService(gctx, AuthConfig{Auth: cfg.Auth, Sessions: sessions, Logger: logger}),
			Sessions: sessions,
			Store:    bundle.Store,
			Logger:   logger,
		})
		if serr != nil {
			return fmt.Errorf("build http server: %w", serr)
		}
		g.Go(func() error { return serveHTTP(gctx, server, cfg.HTTP, logger) })
	}

	if enabled[config.ServiceModeReaper] {
		if bundle.Reaper == nil {
			logger.InfoContext(ctx, "state reaper not needed; backend expires keys natively", "backend", cfg.Store.Backend)
		} else {
			reaper, rerr := service.NewStateReaperService(service.StateReaperServiceOptions{
				Store:    bundle.Reaper,
				Interval: cfg.Store.ReapInterval,
				Logger:   logger,
			})
			if rerr != nil {
				return fmt.Errorf("build state reaper: %w", rerr)
			}
			g.Go(func() error { return reaper.Run(gctx) })
		}
	}

	err = g.Wait()
	logger.Info("services stopped")
	return err
}

// serveHTTP runs server until ctx is done, then shuts it down within the
// configured timeout.
func serveHTTP(ctx context.Context, server *http.Server, cfg config.HTTPConfig, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return <-errCh
}
