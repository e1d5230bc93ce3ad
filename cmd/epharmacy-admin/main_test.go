package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/epharmacy/locator-web/config"
	"github.com/epharmacy/locator-web/internal/adapters/memory"
	"github.com/epharmacy/locator-web/internal/bootstrap"
	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "3f2a4c1e-8b7d-4e6f-9a0b-1c2d3e4f5a6b"

type cliFixture struct {
	store  *memory.ClientStore
	out    *bytes.Buffer
	cmdCtx *commandContext
	closed bool
}

func newCLIFixture(t *testing.T, backend config.StoreBackend, input string) *cliFixture {
	t.Helper()
	f := &cliFixture{store: memory.NewClientStore(), out: &bytes.Buffer{}}
	f.cmdCtx = &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: config.AppConfig{Store: config.StoreConfig{Backend: backend, StateTTL: time.Hour}},
		Out:    f.out,
		In:     strings.NewReader(input),
	}
	f.cmdCtx.OpenStore = func(context.Context, bootstrap.StoreDeps) (*bootstrap.StoreBundle, error) {
		bundle := &bootstrap.StoreBundle{Store: f.store, Close: func() error {
			f.closed = true
			return nil
		}}
		if backend != config.StoreBackendRedis {
			bundle.Reaper = f.store
		}
		return bundle, nil
	}
	return f
}

func (f *cliFixture) seed(t *testing.T, rec domainauth.Record, lastVisited string) {
	t.Helper()
	raw, err := rec.Encode()
	require.NoError(t, err)
	require.NoError(t, f.store.Set(context.Background(), testClientID, domainauth.KeyAuth, raw, time.Hour))
	if lastVisited != "" {
		require.NoError(t, f.store.Set(context.Background(), testClientID, domainauth.KeyLastVisitedPath, lastVisited, time.Hour))
	}
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: epharmacy-admin")
	for name := range commands() {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "clear-state"), strings.Index(out, "show-state"))
}

func TestShowState_Table(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	f.seed(t, domainauth.Record{
		Authenticated: true,
		User:          &domainauth.User{ID: "u1", Name: "Pat Owner", Email: "pat@example.com", Role: domainauth.RolePharmacyOwner},
		ExpiresAt:     time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}, "/pharmacy-owner")

	require.NoError(t, runShowState(f.cmdCtx, []string{testClientID}))

	out := f.out.String()
	assert.Contains(t, out, "Authenticated:")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "Pat Owner")
	assert.Contains(t, out, string(domainauth.RolePharmacyOwner))
	assert.Contains(t, out, "2030-01-02T03:04:05Z")
	assert.Contains(t, out, "/pharmacy-owner")
	assert.True(t, f.closed)
}

func TestShowState_JSON(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	f.seed(t, domainauth.Record{
		Authenticated: true,
		User:          &domainauth.User{Name: "Ada", Role: domainauth.RoleAdmin},
	}, "/admin")

	require.NoError(t, runShowState(f.cmdCtx, []string{"--json", testClientID}))

	var view stateView
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &view))
	assert.Equal(t, testClientID, view.ClientID)
	require.NotNil(t, view.Auth)
	assert.Equal(t, domainauth.RoleAdmin, view.Auth.Role())
	assert.Equal(t, "/admin", view.LastVisitedPath)
	assert.Empty(t, view.RawAuth)
}

func TestShowState_NoRecordAndUnreadable(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	require.NoError(t, runShowState(f.cmdCtx, []string{testClientID}))
	assert.Contains(t, f.out.String(), "no (no record)")

	f.out.Reset()
	require.NoError(t, f.store.Set(context.Background(), testClientID, domainauth.KeyAuth, "{not json", time.Hour))
	require.NoError(t, runShowState(f.cmdCtx, []string{testClientID}))
	assert.Contains(t, f.out.String(), "no (unreadable record)")
	assert.Contains(t, f.out.String(), "{not json")
}

func TestShowState_FlagsUnrecognisedRole(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	f.seed(t, domainauth.Record{
		Authenticated: true,
		User:          &domainauth.User{ID: "u-9", Role: domainauth.Role("Pharmacist")},
	}, "")

	require.NoError(t, runShowState(f.cmdCtx, []string{testClientID}))
	assert.Contains(t, f.out.String(), "Pharmacist (unrecognised)")
}

func TestShowState_ArgumentErrors(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")

	require.ErrorContains(t, runShowState(f.cmdCtx, nil), "exactly one client ID")
	require.ErrorContains(t, runShowState(f.cmdCtx, []string{"not-a-uuid"}), "invalid client ID")
}

func TestShowState_StoreOpenError(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	f.cmdCtx.OpenStore = func(context.Context, bootstrap.StoreDeps) (*bootstrap.StoreBundle, error) {
		return nil, errors.New("dial tcp: refused")
	}
	require.ErrorContains(t, runShowState(f.cmdCtx, []string{testClientID}), "refused")
}

func TestClearState(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		input   string
		wantErr string
		cleared bool
	}{
		{name: "yes flag", args: []string{"--yes", testClientID}, cleared: true},
		{name: "confirmed", args: []string{testClientID}, input: "y\n", cleared: true},
		{name: "declined", args: []string{testClientID}, input: "n\n", wantErr: "aborted by user"},
		{name: "no input", args: []string{testClientID}, wantErr: "aborted by user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCLIFixture(t, config.StoreBackendMemory, tt.input)
			f.seed(t, domainauth.Record{Authenticated: true, User: &domainauth.User{Role: domainauth.RoleCustomer}}, "/customer")

			err := runClearState(f.cmdCtx, tt.args)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			_, authErr := f.store.Get(context.Background(), testClientID, domainauth.KeyAuth)
			_, pathErr := f.store.Get(context.Background(), testClientID, domainauth.KeyLastVisitedPath)
			if tt.cleared {
				require.ErrorIs(t, authErr, ports.ErrNotFound)
				require.ErrorIs(t, pathErr, ports.ErrNotFound)
			} else {
				require.NoError(t, authErr)
				require.NoError(t, pathErr)
			}
		})
	}
}

func TestPurgeState_RemovesExpiredEntries(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	const otherClientID = "9b8a7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, testClientID, domainauth.KeyLastVisitedPath, "/customer", time.Minute))
	require.NoError(t, f.store.Set(ctx, testClientID, domainauth.KeyAuth, "{}", time.Minute))
	require.NoError(t, f.store.Set(ctx, otherClientID, domainauth.KeyAuth, "{}", 2*time.Hour))
	f.cmdCtx.Now = func() time.Time { return time.Now().Add(time.Hour) }

	require.NoError(t, runPurgeState(f.cmdCtx, []string{"--yes"}))
	assert.Contains(t, f.out.String(), "purged 2 client state entries")

	_, err := f.store.Get(ctx, otherClientID, domainauth.KeyAuth)
	require.NoError(t, err)
}

func TestPurgeState_KeepsLiveEntries(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendPostgres, "yes\n")
	f.seed(t, domainauth.Record{}, "/customer")

	require.NoError(t, runPurgeState(f.cmdCtx, nil))
	assert.Contains(t, f.out.String(), "remove expired client state")
	assert.Contains(t, f.out.String(), "purged 0 client state entries")
}

func TestPurgeState_NativeExpiryBackend(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendRedis, "")

	require.NoError(t, runPurgeState(f.cmdCtx, nil))
	assert.Contains(t, f.out.String(), "redis backend expires client state natively")
}

func TestPurgeState_RejectsArguments(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendMemory, "")
	require.ErrorContains(t, runPurgeState(f.cmdCtx, []string{"--yes", testClientID}), "takes no arguments")
	require.Error(t, runPurgeState(f.cmdCtx, []string{"--older-than", "1h"}))
}

func TestDescribeRole(t *testing.T) {
	assert.Equal(t, "-", describeRole(""))
	assert.Equal(t, "PharmacyOwner", describeRole(domainauth.RolePharmacyOwner))
	assert.Equal(t, "Pharmacist (unrecognised)", describeRole(domainauth.Role("Pharmacist")))
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	f := newCLIFixture(t, config.StoreBackendRedis, "")
	require.ErrorContains(t, runMigrations(f.cmdCtx, nil), "postgres backend")
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	opts, err = parseMigrateFlags([]string{"--timeout", "30s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)

	_, err = parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)
}
