// Package memory provides an in-process ClientStore for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/epharmacy/locator-web/internal/ports"
)

type namespace struct {
	values    map[string]string
	expiresAt time.Time // zero: never
}

func (n *namespace) expired(now time.Time) bool {
	return !n.expiresAt.IsZero() && !now.Before(n.expiresAt)
}

// ClientStore keeps client state in a map guarded by a mutex.
// State is lost on restart. Expired namespaces read as absent until
// PurgeExpired drops them.
type ClientStore struct {
	mu      sync.Mutex
	clients map[string]*namespace
	now     func() time.Time
}

// NewClientStore creates an empty store.
func NewClientStore() *ClientStore {
	return &ClientStore{
		clients: make(map[string]*namespace),
		now:     time.Now,
	}
}

// NewClientStoreWithClock creates an empty store that reads time from now.
func NewClientStoreWithClock(now func() time.Time) *ClientStore {
	s := NewClientStore()
	if now != nil {
		s.now = now
	}
	return s
}

// live returns the client's namespace, or nil when it is absent or expired.
func (s *ClientStore) live(clientID string) *namespace {
	ns, ok := s.clients[clientID]
	if !ok || ns.expired(s.now()) {
		return nil
	}
	return ns
}

func (s *ClientStore) Get(_ context.Context, clientID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.live(clientID)
	if ns == nil {
		return "", ports.ErrNotFound
	}
	v, ok := ns.values[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (s *ClientStore) Set(_ context.Context, clientID, key, value string, ttl time.Duration) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.live(clientID)
	if ns == nil {
		ns = &namespace{values: make(map[string]string)}
		s.clients[clientID] = ns
	}
	ns.values[key] = value
	ns.expiresAt = time.Time{}
	if ttl > 0 {
		ns.expiresAt = s.now().Add(ttl)
	}
	return nil
}

func (s *ClientStore) Delete(_ context.Context, clientID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.clients[clientID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(ns.values, k)
	}
	if len(ns.values) == 0 {
		delete(s.clients, clientID)
	}
	return nil
}

// PurgeExpired drops namespaces expired at or before now and reports how many
// values went with them.
func (s *ClientStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, ns := range s.clients {
		if ns.expired(now) {
			n += int64(len(ns.values))
			delete(s.clients, id)
		}
	}
	return n, nil
}

// Ping always succeeds.
func (s *ClientStore) Ping(context.Context) error { return nil }
