// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"inkpress/internal/database"
	"inkpress/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkpress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway user + profile and removes it (and, through
// cascades, its posts and likes) when the test finishes.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	u, err := NewUserStore(db).Create(context.Background(), "test-"+suffix+"@inkpress.local", "secret", "test_"+suffix)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// testPost inserts a post for authorID with a unique slug.
func testPost(t *testing.T, db *sql.DB, authorID uuid.UUID, published bool) *models.Post {
	t.Helper()

	p, err := NewPostStore(db).Create(context.Background(), &models.Post{
		AuthorID:  authorID,
		Title:     "Test Post",
		Slug:      "test-post-" + uuid.NewString()[:8],
		Published: published,
	})
	if err != nil {
		t.Fatalf("create test post: %v", err)
	}
	return p
}

func strPtr(s string) *string { return &s }
