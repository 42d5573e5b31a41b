// Package store provides database access methods for all Inkpress
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inkpress/internal/models"
)

const userColumns = `id, email, password_hash, totp_secret, totp_enabled, created_at, updated_at`

// UserStore handles account credentials and 2FA state.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, wrapErr("find user by email", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("find user by id", err)
	}
	return u, nil
}

// Create inserts a user with a bcrypt-hashed password together with its
// profile row, in one transaction. A taken email or username yields a
// KindConflict error.
func (s *UserStore) Create(ctx context.Context, email, password, username string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("create user", err)
	}
	defer tx.Rollback()

	u, err := scanUser(tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash) VALUES ($1, $2)
		RETURNING `+userColumns, email, string(hash)))
	if err != nil {
		return nil, wrapErr("create user", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, username) VALUES ($1, $2)`, u.ID, username); err != nil {
		return nil, wrapErr("create profile", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("create user commit", err)
	}
	return u, nil
}

// SetTOTPSecret saves a pending TOTP secret (2FA enrollment in progress).
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	return wrapErr("set totp secret", err)
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	return wrapErr("enable totp", err)
}

// DisableTOTP clears the TOTP secret and turns 2FA off.
func (s *UserStore) DisableTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, userID)
	return wrapErr("disable totp", err)
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
