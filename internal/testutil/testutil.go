package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"socialdash-initdb/internal/db"
)

// EnvDatabaseURL names the variable holding a disposable Postgres database
// for integration tests.
const EnvDatabaseURL = "TEST_DATABASE_URL"

// Tables lists every table the bootstrapper creates, children first.
var Tables = []string{
	"engagements",
	"analytics_daily",
	"posts",
	"profiles",
	"admin_flags",
	"users",
	"schema_migrations",
}

// DatabaseURL returns the test database URL or skips the test.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		t.Skipf("%s not set; skipping database test", EnvDatabaseURL)
	}
	return url
}

// testLockKey keeps test packages, which run as separate processes, from
// resetting the shared database under each other.
const testLockKey int64 = 0x7465737464617368

// SetupTestDB opens the test database with every bootstrap table dropped.
// It holds an advisory lock until the test finishes.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := DatabaseURL(t)

	lock, err := db.Open(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	lockConn, err := lock.Connx(context.Background())
	if err != nil {
		t.Fatalf("Failed to reserve lock connection: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := lockConn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, testLockKey); err != nil {
		t.Fatalf("Failed to lock test database: %v", err)
	}
	t.Cleanup(func() {
		_, _ = lockConn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, testLockKey)
		_ = lockConn.Close()
		_ = lock.Close()
	})

	conn, err := db.Open(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	ResetSchema(t, conn)
	return conn
}

// ResetSchema drops every bootstrap table.
func ResetSchema(t *testing.T, conn *sqlx.DB) {
	t.Helper()
	for _, table := range Tables {
		if _, err := conn.Exec(`DROP TABLE IF EXISTS ` + table + ` CASCADE`); err != nil {
			t.Fatalf("Failed to drop %s: %v", table, err)
		}
	}
}

// TableExists reports whether table is present in the current schema.
func TableExists(t *testing.T, conn *sqlx.DB, table string) bool {
	t.Helper()
	var exists bool
	err := conn.Get(&exists, `
SELECT EXISTS(
  SELECT 1 FROM information_schema.tables
  WHERE table_schema = current_schema() AND table_name = $1
)`, table)
	if err != nil {
		t.Fatalf("Failed to check table %s: %v", table, err)
	}
	return exists
}

// Count runs a COUNT(*) query and fails the test on error.
func Count(t *testing.T, conn *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := conn.Get(&n, query, args...); err != nil {
		t.Fatalf("Failed to count with %q: %v", query, err)
	}
	return n
}
