package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Development credentials created by Seed.
const (
	SeedEmail    = "writer@inkpress.local"
	SeedPassword = "writer"
	SeedUsername = "writer"
)

// Seed populates the database with initial development data.
// It creates a default writer account and its profile if no user exists.
// 2FA is off; the writer can enroll from the settings page.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var id string
	if err := tx.QueryRow(`
		INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id
	`, SeedEmail, string(hash)).Scan(&id); err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO profiles (id, username, display_name) VALUES ($1, $2, $3)
	`, id, SeedUsername, "Writer"); err != nil {
		return fmt.Errorf("seed insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default writer",
		"email", SeedEmail,
		"password", SeedPassword,
	)
	return nil
}
