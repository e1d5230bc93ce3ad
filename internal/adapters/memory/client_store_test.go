package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/epharmacy/locator-web/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStore_SetGetDelete(t *testing.T) {
	s := NewClientStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "c1", "auth")
	require.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, s.Set(ctx, "c1", "auth", `{"authenticated":true}`, time.Hour))
	require.NoError(t, s.Set(ctx, "c1", "lastVisitedPath", "/admin", time.Hour))
	require.NoError(t, s.Set(ctx, "c2", "lastVisitedPath", "/customer", time.Hour))

	v, err := s.Get(ctx, "c1", "lastVisitedPath")
	require.NoError(t, err)
	assert.Equal(t, "/admin", v)

	require.NoError(t, s.Set(ctx, "c1", "lastVisitedPath", "/admin/users", time.Hour))
	v, err = s.Get(ctx, "c1", "lastVisitedPath")
	require.NoError(t, err)
	assert.Equal(t, "/admin/users", v, "overwrite semantics")

	require.NoError(t, s.Delete(ctx, "c1", "auth", "lastVisitedPath"))
	_, err = s.Get(ctx, "c1", "auth")
	require.ErrorIs(t, err, ports.ErrNotFound)

	v, err = s.Get(ctx, "c2", "lastVisitedPath")
	require.NoError(t, err)
	assert.Equal(t, "/customer", v, "other clients untouched")
}

func TestClientStore_DeleteMissing(t *testing.T) {
	s := NewClientStore()
	require.NoError(t, s.Delete(context.Background(), "nobody", "auth"))
}

func TestClientStore_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s := NewClientStoreWithClock(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", "lastVisitedPath", "/admin", 30*time.Minute))
	require.NoError(t, s.Set(ctx, "long", "auth", "y", 2*time.Hour))
	require.NoError(t, s.Set(ctx, "long", "lastVisitedPath", "/customer", time.Hour))
	require.NoError(t, s.Set(ctx, "forever", "auth", "z", 0))

	clock = now.Add(30 * time.Minute)
	_, err := s.Get(ctx, "short", "lastVisitedPath")
	require.ErrorIs(t, err, ports.ErrNotFound, "expires at the ttl boundary")

	v, err := s.Get(ctx, "long", "auth")
	require.NoError(t, err)
	assert.Equal(t, "y", v)

	clock = now.Add(61 * time.Minute)
	_, err = s.Get(ctx, "long", "auth")
	require.ErrorIs(t, err, ports.ErrNotFound, "the last write sets the namespace expiry")

	n, err := s.PurgeExpired(ctx, clock)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	v, err = s.Get(ctx, "forever", "auth")
	require.NoError(t, err)
	assert.Equal(t, "z", v)
}

func TestClientStore_WriteAfterExpiryStartsFresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s := NewClientStoreWithClock(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "c", "auth", "old", time.Minute))
	clock = now.Add(2 * time.Minute)
	require.NoError(t, s.Set(ctx, "c", "lastVisitedPath", "/customer", time.Minute))

	_, err := s.Get(ctx, "c", "auth")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestClientStore_SetEmptyClientID(t *testing.T) {
	require.Error(t, NewClientStore().Set(context.Background(), "", "auth", "x", time.Hour))
}

func TestClientStore_ConcurrentWritesLastWins(t *testing.T) {
	s := NewClientStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, "c", "lastVisitedPath", "/customer", time.Hour)
		}()
	}
	wg.Wait()

	v, err := s.Get(ctx, "c", "lastVisitedPath")
	require.NoError(t, err)
	assert.Equal(t, "/customer", v)
}
