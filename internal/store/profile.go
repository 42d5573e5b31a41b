// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

const profileColumns = `id, username, display_name, bio, avatar_url, created_at`

// ProfileStore handles profile reads and owner updates.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore with the given database connection.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(s scanner) (*models.Profile, error) {
	p := &models.Profile{}
	if err := s.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByUsername retrieves a profile by username.
func (s *ProfileStore) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
	if err != nil {
		return nil, wrapErr("find profile by username", err)
	}
	return p, nil
}

// FindByID retrieves a profile by its ID (the owning user's ID).
func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("find profile by id", err)
	}
	return p, nil
}

// Update writes username, display name and bio, keyed by profile ID, and
// fills the columns the form does not edit (avatar, creation time) back into
// p. A taken username yields a KindConflict error.
func (s *ProfileStore) Update(ctx context.Context, p *models.Profile) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE profiles SET username = $1, display_name = $2, bio = $3
		WHERE id = $4
		RETURNING avatar_url, created_at
	`, p.Username, p.DisplayName, p.Bio, p.ID).Scan(&p.AvatarURL, &p.CreatedAt)
	if err != nil {
		return wrapErr("update profile", err)
	}
	return nil
}

// ListUsernames returns every username, alphabetically.
func (s *ProfileStore) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM profiles ORDER BY username`)
	if err != nil {
		return nil, wrapErr("list usernames", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, wrapErr("scan username", err)
		}
		names = append(names, n)
	}
	return names, wrapErr("list usernames", rows.Err())
}
