// Package testutil holds helpers for tests that need real Postgres or Redis.
// Tests skip when the infrastructure is unreachable unless TEST_REQUIRE_DB,
// TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set, in which case they fail.
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
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/migrate"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestDBConfig locates the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The default port 55432 is the
// docker-compose test profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "intellect"),
		Password: envOr("TEST_DB_PASSWORD", "intellect"),
		DBName:   envOr("TEST_DB_NAME", "intellect"),
		SSLMode:  envOr("DB_SSL_MODE", "disable"),
	}
}

// DSN renders a pgx connection URL. A non-empty schema is placed first on the
// search_path.
func (c TestDBConfig) DSN(schema string) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// appTables lists application tables children first so DELETE respects
// foreign keys.
var appTables = []string{
	"outbound_messages",
	"dm_threads",
	"members",
	"slack_events",
	"cron_job_runs",
}

// SkipIfNoTestDB skips (or fails, see package doc) when Postgres is unreachable.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN(""))
	if err == nil {
		defer closeQuietly(t, "ping db", db)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = db.PingContext(ctx)
	}
	if err == nil {
		return
	}
	if envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") {
		t.Fatal("test database not available:", err)
	}
	t.Skip("test database not available:", err)
}

// WithAutoDB runs fn against a migrated database. With TEST_DB_EPHEMERAL set,
// each test gets its own schema which is dropped afterwards; otherwise the
// shared database is used and its tables are emptied before and after fn.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)

	if envBool("TEST_DB_EPHEMERAL") {
		fn(ephemeralDB(t))
		return
	}

	db := openMigrated(t)
	truncateAll(t, db)
	t.Cleanup(func() {
		truncateAll(t, db)
		closeQuietly(t, "test db", db)
	})
	fn(db)
}

func ephemeralDB(t TestingTB) *sql.DB {
	t.Helper()

	admin := openDB(t, "")
	schema := generateSchemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeQuietly(t, "admin db", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Logf("using ephemeral schema %s", schema)

	db := openDB(t, schema)
	t.Cleanup(func() {
		closeQuietly(t, "schema db", db)
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		if _, err := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		closeQuietly(t, "admin db", admin)
	})

	migrateDB(t, db)
	return db
}

// openMigrated opens the shared database and applies migrations.
func openMigrated(t TestingTB) *sql.DB {
	t.Helper()
	db := openDB(t, "")
	migrateDB(t, db)
	return db
}

func openDB(t TestingTB, schema string) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN(schema))
	if err != nil {
		t.Fatal("open test db:", err)
	}
	db.SetMaxOpenConns(16)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(t, "test db", db)
		t.Fatal("ping test db:", err)
	}
	return db
}

func migrateDB(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrate.Run(ctx, db); err != nil {
		t.Fatal("migrate test db:", err)
	}
}

func truncateAll(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range appTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("empty table %s: %v", table, err)
		}
	}
}

// generateSchemaName returns "t_" plus 8 random hex characters.
func generateSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%08x", uint32(time.Now().UnixNano()))
	}
	return "t_" + hex.EncodeToString(b)
}

func closeQuietly(t TestingTB, name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		t.Logf("close %s: %v", name, err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
