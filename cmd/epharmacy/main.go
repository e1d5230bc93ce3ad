package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/epharmacy/locator-web/config"
	"github.com/epharmacy/locator-web/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		bootstrap.InitLogger(config.LogConfig{}).ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(cfg.Log)
	if err = run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logStartupInfo(ctx, logger, cfg)

	return bootstrap.Run(ctx, bootstrap.RunConfig{
		Config: cfg,
		Logger: logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting epharmacy locator",
		"enabled_services", bootstrap.GetEnabledServices(cfg),
		"store_backend", cfg.Store.Backend,
		"auth_mode", cfg.Auth.Mode,
		"dev", cfg.IsDev)
}
