package config

import (
	"fmt"
	"strings"
	"time"
)

// StoreBackend selects where per-client state lives.
type StoreBackend string

const (
	// StoreBackendMemory keeps state in process; single instance and tests only.
	StoreBackendMemory StoreBackend = "memory"
	// StoreBackendRedis stores one hash per client with a TTL reset on every write.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendPostgres stores rows in client_state.
	StoreBackendPostgres StoreBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres":
		*b = StoreBackend(v)
		return nil
	case "postgresql", "pg":
		*b = StoreBackendPostgres
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: memory, redis, postgres)", v)
	}
}

// StoreConfig configures the client state store.
type StoreConfig struct {
	Backend StoreBackend `env:"STORE_BACKEND" envDefault:"redis"`

	// StateTTL bounds how long an idle authenticated client's state is kept;
	// it is also the client_id cookie lifetime.
	StateTTL time.Duration `env:"STORE_STATE_TTL" envDefault:"720h"`

	// AnonymousTTL bounds state written for clients that are not signed in.
	AnonymousTTL time.Duration `env:"STORE_ANONYMOUS_TTL" envDefault:"30m"`

	// KeyPrefix namespaces redis keys.
	KeyPrefix string `env:"STORE_KEY_PREFIX" envDefault:"client:"`

	// ReapInterval is how often expired state is purged (memory, postgres).
	ReapInterval time.Duration `env:"STORE_REAP_INTERVAL" envDefault:"10m"`
}

// Sanitize applies defaults for non-positive durations and keeps AnonymousTTL
// within StateTTL.
func (s *StoreConfig) Sanitize() {
	if s.Backend == "" {
		s.Backend = StoreBackendRedis
	}
	if s.StateTTL <= 0 {
		s.StateTTL = 720 * time.Hour
	}
	if s.AnonymousTTL <= 0 {
		s.AnonymousTTL = 30 * time.Minute
	}
	s.AnonymousTTL = min(s.AnonymousTTL, s.StateTTL)
	if s.ReapInterval <= 0 {
		s.ReapInterval = 10 * time.Minute
	}
}

// NeedsReaper reports whether the backend relies on periodic purging
// rather than native key expiry.
func (s StoreConfig) NeedsReaper() bool {
	return s.Backend != StoreBackendRedis
}
