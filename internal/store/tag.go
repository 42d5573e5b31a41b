// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"inkpress/internal/models"
	"inkpress/internal/slug"
)

// TagStore handles tags and their association with posts.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore with the given database connection.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) queryTags(ctx context.Context, op, query string, args ...any) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, wrapErr(op+" scan", err)
		}
		tags = append(tags, t)
	}
	return tags, wrapErr(op, rows.Err())
}

// List returns all tags ordered by slug.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	return s.queryTags(ctx, "list tags", `SELECT id, name, slug FROM tags ORDER BY slug`)
}

// ListForPost returns the tags attached to a post.
func (s *TagStore) ListForPost(ctx context.Context, postID uuid.UUID) ([]models.Tag, error) {
	return s.queryTags(ctx, "list tags for post", `
		SELECT t.id, t.name, t.slug
		FROM tags t JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.slug
	`, postID)
}

// FindBySlug retrieves a tag by slug.
func (s *TagStore) FindBySlug(ctx context.Context, tagSlug string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = $1`, tagSlug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, wrapErr("find tag by slug", err)
	}
	return t, nil
}

// Replace sets the tags of a post to exactly names, creating missing tags.
// Names that normalize to an empty slug are ignored, as are duplicates.
func (s *TagStore) Replace(ctx context.Context, postID uuid.UUID, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("replace tags", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return wrapErr("clear post tags", err)
	}

	for _, t := range NormalizeTags(names) {
		var tagID uuid.UUID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
			RETURNING id
		`, t.Name, t.Slug).Scan(&tagID)
		if err != nil {
			return wrapErr("upsert tag", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, postID, tagID); err != nil {
			return wrapErr("attach tag", err)
		}
	}

	return wrapErr("replace tags commit", tx.Commit())
}

// NormalizeTags trims tag names, derives their slugs and drops empty or
// duplicate entries, keeping first-seen order.
func NormalizeTags(names []string) []models.Tag {
	seen := make(map[string]bool, len(names))
	var tags []models.Tag
	for _, n := range names {
		n = strings.TrimSpace(n)
		s := slug.Generate(n)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tags = append(tags, models.Tag{Name: n, Slug: s})
	}
	return tags
}
