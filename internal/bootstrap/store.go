package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/epharmacy/locator-web/config"
	"github.com/epharmacy/locator-web/internal/adapters/memory"
	"github.com/epharmacy/locator-web/internal/adapters/postgres"
	redisadapter "github.com/epharmacy/locator-web/internal/adapters/redis"
	"github.com/epharmacy/locator-web/internal/ports"
)

// ClientStore is a client state backend that can be pinged for readiness.
type ClientStore interface {
	ports.ClientStore
	Ping(ctx context.Context) error
}

// StoreBundle is the client state backend selected by configuration.
type StoreBundle struct {
	Store ClientStore
	// Reaper is set for backends without native expiry.
	Reaper ports.StateReaper
	// Close releases connections held by the backend.
	Close func() error
}

// StoreDeps groups inputs for BuildClientStore.
type StoreDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// BuildClientStore connects the configured backend. Postgres migrations run
// here when enabled.
func BuildClientStore(ctx context.Context, deps StoreDeps) (*StoreBundle, error) {
	if deps.Config == nil {
		return nil, errors.New("store config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		logger.WarnContext(ctx, "using in-memory client state; state is lost on restart and not shared between instances")
		store := memory.NewClientStore()
		return &StoreBundle{Store: store, Reaper: store, Close: func() error { return nil }}, nil

	case config.StoreBackendRedis:
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := redisadapter.NewClientStoreWithPrefix(client, cfg.Store.KeyPrefix)
		return &StoreBundle{Store: store, Close: client.Close}, nil

	case config.StoreBackendPostgres:
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err = RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
		store := postgres.NewClientStore(db)
		return &StoreBundle{Store: store, Reaper: store, Close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
