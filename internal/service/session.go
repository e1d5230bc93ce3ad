package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
)

const (
	// DefaultStateTTL is how long an authenticated client's state outlives its last write.
	DefaultStateTTL = 720 * time.Hour
	// DefaultAnonymousTTL is how long state written for an unauthenticated client lives.
	DefaultAnonymousTTL = 30 * time.Minute
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store        ports.ClientStore // Required
	StateTTL     time.Duration     // Optional, defaults to DefaultStateTTL
	AnonymousTTL time.Duration     // Optional, defaults to DefaultAnonymousTTL; capped at StateTTL
	Logger       *slog.Logger      // Optional
	Now          func() time.Time  // Optional, defaults to time.Now
}

// SessionService reads and writes the per-client session record and last
// visited path. Reads never fail: unreadable state is logged and treated as absent.
//
// Writes for a client holding a valid authenticated record keep its namespace
// for StateTTL; all other writes give it AnonymousTTL, so clients that never
// sign in do not accumulate long-lived state.
type SessionService struct {
	store        ports.ClientStore
	stateTTL     time.Duration
	anonymousTTL time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewSessionService constructs a SessionService. It panics if Store is nil.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Store == nil {
		panic("session service: Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stateTTL := opts.StateTTL
	if stateTTL <= 0 {
		stateTTL = DefaultStateTTL
	}
	anonymousTTL := opts.AnonymousTTL
	if anonymousTTL <= 0 {
		anonymousTTL = DefaultAnonymousTTL
	}
	anonymousTTL = min(anonymousTTL, stateTTL)
	return &SessionService{
		store:        opts.Store,
		stateTTL:     stateTTL,
		anonymousTTL: anonymousTTL,
		logger:       logger.With("component", "session"),
		now:          now,
	}
}

// Load returns the client's session record. Missing, malformed, expired or
// unreadable records all come back as the zero (unauthenticated) record.
func (s *SessionService) Load(ctx context.Context, clientID string) domainauth.Record {
	if clientID == "" {
		return domainauth.Record{}
	}
	raw, ok := s.get(ctx, clientID, domainauth.KeyAuth)
	if !ok {
		return domainauth.Record{}
	}

	rec := domainauth.ParseRecord(raw)
	if rec.Authenticated && rec.Expired(s.now()) {
		if err := s.store.Delete(ctx, clientID, domainauth.KeyAuth); err != nil {
			s.logger.WarnContext(ctx, "delete expired session record failed", "error", err)
		}
		return domainauth.Record{}
	}
	return rec
}

// Save persists rec as the client's session record. An authenticated record
// extends the client's state to StateTTL.
func (s *SessionService) Save(ctx context.Context, clientID string, rec domainauth.Record) error {
	if clientID == "" {
		return errors.New("client ID is required")
	}
	raw, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err = s.store.Set(ctx, clientID, domainauth.KeyAuth, raw, s.ttlFor(rec)); err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

// RecordVisit overwrites the client's last visited path. The client's state
// keeps StateTTL only while it holds a valid authenticated record.
func (s *SessionService) RecordVisit(ctx context.Context, clientID, path string) error {
	if clientID == "" || path == "" {
		return nil
	}
	ttl := s.anonymousTTL
	if raw, ok := s.get(ctx, clientID, domainauth.KeyAuth); ok {
		ttl = s.ttlFor(domainauth.ParseRecord(raw))
	}
	if err := s.store.Set(ctx, clientID, domainauth.KeyLastVisitedPath, path, ttl); err != nil {
		return fmt.Errorf("record last visited path: %w", err)
	}
	return nil
}

// LastVisited returns the client's last visited path, or "" when none is recorded.
func (s *SessionService) LastVisited(ctx context.Context, clientID string) string {
	if clientID == "" {
		return ""
	}
	path, _ := s.get(ctx, clientID, domainauth.KeyLastVisitedPath)
	return path
}

// Clear removes the session record and the last visited path, so the next
// user of this client does not resume the previous user's page.
func (s *SessionService) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, clientID, domainauth.KeyAuth, domainauth.KeyLastVisitedPath); err != nil {
		return fmt.Errorf("clear client state: %w", err)
	}
	return nil
}

func (s *SessionService) get(ctx context.Context, clientID, key string) (string, bool) {
	v, err := s.store.Get(ctx, clientID, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.WarnContext(ctx, "read client state failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

func (s *SessionService) ttlFor(rec domainauth.Record) time.Duration {
	if rec.Authenticated && !rec.Expired(s.now()) {
		return s.stateTTL
	}
	return s.anonymousTTL
}
