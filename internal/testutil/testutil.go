// Package testutil holds shared helpers for tests that need live infrastructure.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/epharmacy/locator-web/internal/migrate"
)

// TestDBConfig holds configuration for test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig returns default test database configuration.
// Defaults to port 55432 (local test DB from the docker-compose test profile).
// CI/CD environments should set TEST_DB_PORT=5432 explicitly.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "epharmacy"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "epharmacy"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "epharmacy"),
	}
}

func (c TestDBConfig) dsn(searchPath string) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", getEnvOrDefault("DB_SSL_MODE", "disable"))
	if searchPath != "" {
		q.Set("search_path", searchPath)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// SkipIfNoTestDB skips the test if test database is not available.
// Set TEST_REQUIRE_DB=true to fail instead.
func SkipIfNoTestDB(t testing.TB) {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn(""))
	if err != nil {
		skipOrFail(t, err)
		return
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		skipOrFail(t, pingErr)
	}
}

func skipOrFail(t testing.TB, err error) {
	t.Helper()
	if envBool("TEST_REQUIRE_DB") {
		t.Fatal("Test database not available:", err)
	}
	t.Skip("Test database not available:", err)
}

// SetupEphemeralSchemaDB creates a unique schema per test, points search_path at it,
// runs migrations, and drops the schema when the test completes.
func SetupEphemeralSchemaDB(t testing.TB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	cfg := DefaultTestDBConfig()
	adminDB, err := sql.Open("pgx", cfg.dsn(""))
	if err != nil {
		t.Fatal("Failed to open admin DB:", err)
	}

	schema := generateSchemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err = adminDB.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		_ = adminDB.Close()
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	db, err := sql.Open("pgx", cfg.dsn(schema))
	if err != nil {
		_ = adminDB.Close()
		t.Fatal("Failed to open schema-scoped DB:", err)
	}

	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer ccancel()
		_ = db.Close()
		if _, dropErr := adminDB.ExecContext(cctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); dropErr != nil {
			t.Logf("Warning: failed to drop schema %s: %v", schema, dropErr)
		}
		_ = adminDB.Close()
	})

	if migrateErr := migrate.Run(ctx, db, nil); migrateErr != nil {
		t.Fatal("Failed to run migrations in ephemeral schema:", migrateErr)
	}
	return db
}

// generateSchemaName creates a lowercase alphanumeric schema name with prefix.
func generateSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

// getEnvOrDefault returns environment variable value or default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
