package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/epharmacy/locator-web/internal/ports"
)

// StateReaperServiceOptions groups dependencies for StateReaperService.
type StateReaperServiceOptions struct {
	Store    ports.StateReaper // Required
	Interval time.Duration     // Required: how often to sweep
	Logger   *slog.Logger      // Optional
	Now      func() time.Time  // Optional, defaults to time.Now
}

// StateReaperService periodically purges expired client state from backends
// without native key expiry.
type StateReaperService struct {
	store    ports.StateReaper
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewStateReaperService constructs a StateReaperService.
func NewStateReaperService(opts StateReaperServiceOptions) (*StateReaperService, error) {
	if opts.Store == nil {
		return nil, errors.New("state reaper: Store is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("state reaper: Interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &StateReaperService{
		store:    opts.Store,
		interval: opts.Interval,
		logger:   logger.With("component", "state_reaper"),
		now:      now,
	}, nil
}

// Run sweeps once after a short jitter and then every interval until ctx is done.
// It returns nil on cancellation.
func (s *StateReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting state reaper", "interval", s.interval)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			s.logger.InfoContext(ctx, "state reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}

		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "state sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

// Sweep removes expired client state and returns how many entries went.
func (s *StateReaperService) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "purged expired client state", "count", n, "as_of", now)
	}
	return n, nil
}

// waitWithJitter delays up to 10% of the interval so replicas do not sweep in lockstep.
func (s *StateReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
