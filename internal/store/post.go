// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

// postColumns is the column list shared by every post query. Listing
// queries LEFT JOIN profiles as pr to fill the author fields.
const postColumns = `
	p.id, p.author_id, p.title, p.slug, p.content, p.excerpt, p.cover_image_url,
	p.published, p.published_at, p.created_at, p.updated_at,
	COALESCE(pr.username, ''), pr.display_name`

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(s scanner) (*models.Post, error) {
	p := &models.Post{}
	err := s.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CoverImageURL,
		&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorUsername, &p.AuthorDisplayName,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostStore) queryPosts(ctx context.Context, op, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr(op+" scan", err)
		}
		posts = append(posts, *p)
	}
	return posts, wrapErr(op, rows.Err())
}

// Create inserts a new post and returns it with the backend-assigned ID and
// timestamps. A duplicate slug yields a KindConflict error.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	var publishedAt *time.Time
	if p.Published {
		now := time.Now()
		publishedAt = &now
	}

	created := &models.Post{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (author_id, title, slug, content, excerpt, cover_image_url, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, author_id, title, slug, content, excerpt, cover_image_url,
		          published, published_at, created_at, updated_at
	`, p.AuthorID, p.Title, p.Slug, p.Content, p.Excerpt, p.CoverImageURL, p.Published, publishedAt,
	).Scan(
		&created.ID, &created.AuthorID, &created.Title, &created.Slug, &created.Content,
		&created.Excerpt, &created.CoverImageURL, &created.Published, &created.PublishedAt,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("create post", err)
	}
	return created, nil
}

// Update writes the editable fields of a post owned by p.AuthorID. The slug
// column is deliberately absent: slugs are immutable after creation.
// published_at is stamped the first time the post becomes published.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, content = $2, excerpt = $3, cover_image_url = $4,
			published = $5,
			published_at = CASE WHEN $5 AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $6 AND author_id = $7
	`, p.Title, p.Content, p.Excerpt, p.CoverImageURL, p.Published, p.ID, p.AuthorID)
	if err != nil {
		return wrapErr("update post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("update post", err)
	}
	if n == 0 {
		return wrapErr("update post", ErrNotFound)
	}
	return nil
}

// FindByIDForAuthor retrieves a post by ID if it belongs to authorID.
func (s *PostStore) FindByIDForAuthor(ctx context.Context, id, authorID uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE p.id = $1 AND p.author_id = $2
	`, id, authorID))
	if err != nil {
		return nil, wrapErr("find post by id", err)
	}
	return p, nil
}

// FindPublishedBySlug retrieves a published post by its slug. Drafts are
// never returned.
func (s *PostStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE p.slug = $1 AND p.published
	`, slug))
	if err != nil {
		return nil, wrapErr("find post by slug", err)
	}
	return p, nil
}

// FindPublishedByID retrieves a published post by ID. Used by the like
// endpoint, which addresses posts by ID.
func (s *PostStore) FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE p.id = $1 AND p.published
	`, id))
	if err != nil {
		return nil, wrapErr("find published post by id", err)
	}
	return p, nil
}

// ListPublished returns published posts, newest first.
func (s *PostStore) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.queryPosts(ctx, "list published posts", `
		SELECT `+postColumns+`
		FROM posts p LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE p.published
		ORDER BY p.published_at DESC NULLS LAST
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

// ListPublishedByTag returns published posts carrying the tag with tagSlug.
func (s *PostStore) ListPublishedByTag(ctx context.Context, tagSlug string) ([]models.Post, error) {
	return s.queryPosts(ctx, "list posts by tag", `
		SELECT `+postColumns+`
		FROM posts p
		JOIN post_tags pt ON pt.post_id = p.id
		JOIN tags t ON t.id = pt.tag_id
		LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE t.slug = $1 AND p.published
		ORDER BY p.published_at DESC NULLS LAST
	`, tagSlug)
}

// ListByAuthor returns an author's posts, newest first. Drafts are included
// only when includeDrafts is set (the author viewing their own profile).
func (s *PostStore) ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]models.Post, error) {
	return s.queryPosts(ctx, "list posts by author", `
		SELECT `+postColumns+`
		FROM posts p LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE p.author_id = $1 AND (p.published OR $2)
		ORDER BY p.created_at DESC
	`, authorID, includeDrafts)
}

// PublishedEntry is the minimal post projection needed by the sitemap.
type PublishedEntry struct {
	Slug      string
	UpdatedAt time.Time
}

// ListPublishedEntries returns slug and last-modified time of every
// published post, most recently published first.
func (s *PostStore) ListPublishedEntries(ctx context.Context) ([]PublishedEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, updated_at FROM posts
		WHERE published
		ORDER BY published_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, wrapErr("list published entries", err)
	}
	defer rows.Close()

	var entries []PublishedEntry
	for rows.Next() {
		var e PublishedEntry
		if err := rows.Scan(&e.Slug, &e.UpdatedAt); err != nil {
			return nil, wrapErr("scan published entry", err)
		}
		entries = append(entries, e)
	}
	return entries, wrapErr("list published entries", rows.Err())
}
