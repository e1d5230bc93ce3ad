// Package postgres provides a PostgreSQL-backed ClientStore for deployments
// that want client state to survive Redis flushes.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/epharmacy/locator-web/internal/errors"
	"github.com/epharmacy/locator-web/internal/ports"
)

// ClientStore stores client state rows in the client_state table.
type ClientStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewClientStore creates a ClientStore on db. The schema is created by internal/migrate.
func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db, now: time.Now}
}

func (s *ClientStore) Get(ctx context.Context, clientID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM client_state
		WHERE client_id = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > $3)`,
		clientID, key, s.now().UTC(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrNotFound
		}
		return "", fmt.Errorf("select client state: %w", apperrors.MapDBError(err))
	}
	return value, nil
}

// Set upserts the value and moves the expiry of every live row of the client
// to ttl from now. Rows of an already expired namespace are dropped.
func (s *ClientStore) Set(ctx context.Context, clientID, key, value string, ttl time.Duration) error {
	now := s.now().UTC()
	var expiresAt any
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	_, err := s.db.ExecContext(ctx, `
		WITH upserted AS (
			INSERT INTO client_state (client_id, key, value, updated_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (client_id, key)
			DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at
			RETURNING 1
		), expired AS (
			DELETE FROM client_state
			WHERE client_id = $1 AND key <> $2 AND expires_at <= $4
			RETURNING 1
		)
		UPDATE client_state SET expires_at = $5
		WHERE client_id = $1 AND key <> $2 AND (expires_at IS NULL OR expires_at > $4)`,
		clientID, key, value, now, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert client state: %w", apperrors.MapDBError(err))
	}
	return nil
}

func (s *ClientStore) Delete(ctx context.Context, clientID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_state WHERE client_id = $1 AND key = ANY($2)`,
		clientID, keys,
	)
	if err != nil {
		return fmt.Errorf("delete client state: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeExpired deletes rows expired at or before now and reports how many were removed.
func (s *ClientStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge client state: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return n, nil
}

// Ping checks connectivity to the database.
func (s *ClientStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", apperrors.MapDBError(err))
	}
	return nil
}
