package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/epharmacy/locator-web/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClientStore_Memory(t *testing.T) {
	cfg := &config.AppConfig{Store: config.StoreConfig{Backend: config.StoreBackendMemory}}
	bundle, err := BuildClientStore(context.Background(), StoreDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bundle.Close() })

	assert.NotNil(t, bundle.Reaper)
	ctx := context.Background()
	require.NoError(t, bundle.Store.Set(ctx, "c1", "auth", `{"authenticated":true}`, time.Hour))
	v, err := bundle.Store.Get(ctx, "c1", "auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated":true}`, v)
	assert.NoError(t, bundle.Store.Ping(ctx))
}

func TestBuildClientStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.AppConfig{
		Store: config.StoreConfig{Backend: config.StoreBackendRedis, KeyPrefix: "client:"},
		Redis: config.RedisConfig{URI: mr.Addr()},
	}
	bundle, err := BuildClientStore(context.Background(), StoreDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bundle.Close() })

	assert.Nil(t, bundle.Reaper, "redis expires keys natively")
	ctx := context.Background()
	require.NoError(t, bundle.Store.Set(ctx, "c1", "lastVisitedPath", "/customer", 30*time.Minute))
	assert.True(t, mr.Exists("client:c1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("client:c1"))
}

func TestBuildClientStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.AppConfig{
		Store: config.StoreConfig{Backend: config.StoreBackendRedis},
		Redis: config.RedisConfig{URI: addr},
	}
	_, err := BuildClientStore(context.Background(), StoreDeps{Config: cfg, Logger: discardLogger()})
	require.Error(t, err)
}

func TestBuildClientStore_Errors(t *testing.T) {
	_, err := BuildClientStore(context.Background(), StoreDeps{})
	require.Error(t, err)

	cfg := &config.AppConfig{Store: config.StoreConfig{Backend: "etcd"}}
	_, err = BuildClientStore(context.Background(), StoreDeps{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		wantAddr string
		wantDB   int
		wantPass string
		wantErr  bool
	}{
		{name: "host and port", cfg: config.RedisConfig{URI: "cache:6379", Password: "pw", DB: 3}, wantAddr: "cache:6379", wantDB: 3, wantPass: "pw"},
		{name: "url carries credentials", cfg: config.RedisConfig{URI: "redis://:secret@cache:6380/2", Password: "ignored", DB: 9}, wantAddr: "cache:6380", wantDB: 2, wantPass: "secret"},
		{name: "blank", cfg: config.RedisConfig{URI: "  "}, wantErr: true},
		{name: "bad url", cfg: config.RedisConfig{URI: "redis://cache:6379/notadb"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opts.Addr)
			assert.Equal(t, tt.wantDB, opts.DB)
			assert.Equal(t, tt.wantPass, opts.Password)
		})
	}
}

func TestBuildClientStore_RedisURL(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.AppConfig{
		Store: config.StoreConfig{Backend: config.StoreBackendRedis, KeyPrefix: "client:"},
		Redis: config.RedisConfig{URI: "redis://" + mr.Addr() + "/0"},
	}
	bundle, err := BuildClientStore(context.Background(), StoreDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bundle.Close() })

	require.NoError(t, bundle.Store.Ping(context.Background()))
}
