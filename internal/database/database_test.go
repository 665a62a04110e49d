// Package database tests cover PostgreSQL connection and migration execution.
// These are integration tests that require a running PostgreSQL instance.
package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcms/internal/config"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testConfig mirrors the docker-compose defaults, overridable from the env.
func testConfig() config.DatabaseConfig {
	port, _ := strconv.Atoi(envOr("POSTGRES_PORT", "5432"))
	return config.DatabaseConfig{
		Host:            envOr("POSTGRES_HOST", "localhost"),
		Port:            port,
		User:            envOr("POSTGRES_USER", "blogcms"),
		Password:        envOr("POSTGRES_PASSWORD", "changeme"),
		Name:            envOr("POSTGRES_DB", "blogcms"),
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}
}

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(context.Background(), testConfig())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnect(t *testing.T) {
	db := testDB(t)

	assert.Equal(t, 25, db.Stats().MaxOpenConnections)
	assert.NoError(t, db.Ping())
}

func TestConnectInvalidDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 1
	cfg.Name = "nonexistent"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, cfg)
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))
	// Running twice must be a no-op.
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"users", "blog_categories", "blog_posts", "blog_activity_log"} {
		var exists bool
		err := db.GetContext(ctx, &exists,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", table)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist after migration", table)
	}
}

func TestMigrateSeedsRootAndUnknownAuthor(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	var rootParent *int64
	require.NoError(t, db.GetContext(ctx, &rootParent,
		"SELECT parent_id FROM blog_categories WHERE id = 1"))
	assert.Nil(t, rootParent)

	var hash string
	require.NoError(t, db.GetContext(ctx, &hash, "SELECT password_hash FROM users WHERE id = 1"))
	assert.Empty(t, hash, "unknown author must not be able to sign in")
}

func TestMigrateRejectsInconsistentPublication(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	_, err := db.ExecContext(ctx, `
		INSERT INTO blog_posts (category_id, user_id, title, slug, content_raw, is_published, published_at)
		VALUES (1, 1, 'Broken', 'broken-publication-check', 'x', TRUE, NULL)
	`)
	assert.Error(t, err)
}
