// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"blogcms/internal/config"
	"blogcms/internal/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB connects to the test database and runs migrations. If the database
// is unavailable the test is skipped. The raw handle is returned for
// cleanup statements.
func testDB(t *testing.T) (*DB, *sqlx.DB) {
	t.Helper()

	port, _ := strconv.Atoi(envOr("POSTGRES_PORT", "5432"))
	cfg := config.DatabaseConfig{
		Host:         envOr("POSTGRES_HOST", "localhost"),
		Port:         port,
		User:         envOr("POSTGRES_USER", "blogcms"),
		Password:     envOr("POSTGRES_PASSWORD", "changeme"),
		Name:         envOr("POSTGRES_DB", "blogcms"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := database.Connect(ctx, cfg)
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(ctx, raw); err != nil {
		raw.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { raw.Close() })
	return New(raw, nil, 0), raw
}

var slugSeq atomic.Int64

// uniqueSlug returns a slug no other test run will produce.
func uniqueSlug(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), slugSeq.Add(1))
}

// cleanCategories hard-deletes test categories. Call in t.Cleanup().
func cleanCategories(raw *sqlx.DB, ids ...int64) {
	for _, id := range ids {
		raw.Exec("DELETE FROM blog_posts WHERE category_id = $1", id)
		raw.Exec("DELETE FROM blog_categories WHERE id = $1", id)
	}
}

// cleanPosts hard-deletes test posts. Call in t.Cleanup().
func cleanPosts(raw *sqlx.DB, ids ...int64) {
	for _, id := range ids {
		raw.Exec("DELETE FROM blog_posts WHERE id = $1", id)
	}
}

func ptr[T any](v T) *T { return &v }
