// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog post. The slug is assigned once at creation and is never
// rewritten afterwards, even when the title changes.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	AuthorID      uuid.UUID  `json:"author_id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       *string    `json:"content,omitempty"` // Markdown source
	Excerpt       *string    `json:"excerpt,omitempty"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Populated by listing queries that join profiles; empty otherwise.
	AuthorUsername    string  `json:"author_username,omitempty"`
	AuthorDisplayName *string `json:"author_display_name,omitempty"`
}

// Path returns the canonical public location of the post.
func (p *Post) Path() string {
	return PostPath(p.Slug)
}

// PostPath returns the canonical public location for a post slug.
func PostPath(slug string) string {
	return "/posts/" + slug
}

// AuthorName returns the author's display name, falling back to the username.
func (p *Post) AuthorName() string {
	if p.AuthorDisplayName != nil && *p.AuthorDisplayName != "" {
		return *p.AuthorDisplayName
	}
	return p.AuthorUsername
}
