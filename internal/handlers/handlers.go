// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for Inkpress.
// Handlers are grouped by concern (public, write, settings, auth) and
// receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"inkpress/internal/models"
	"inkpress/internal/session"
)

// PageCache is the page cache consumed by the handlers. *cache.PageCache
// satisfies it.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Invalidate(ctx context.Context, keys ...string)
	InvalidatePost(ctx context.Context, slug string)
	InvalidateAll(ctx context.Context)
}

// SessionStore is the part of *session.Store the handlers write through.
type SessionStore interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// PostReader serves the public post listings.
type PostReader interface {
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListPublishedByTag(ctx context.Context, tagSlug string) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]models.Post, error)
}

// TagReader looks tags up for pages and forms.
type TagReader interface {
	FindBySlug(ctx context.Context, slug string) (*models.Tag, error)
	ListForPost(ctx context.Context, postID uuid.UUID) ([]models.Tag, error)
}

// ProfileReader looks profiles up.
type ProfileReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// LikeStore reads and toggles likes.
type LikeStore interface {
	Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Count(ctx context.Context, postID uuid.UUID) (int, error)
	Toggle(ctx context.Context, userID, postID uuid.UUID) (liked bool, count int, err error)
}

// UserStore is the account persistence used by sign-in and 2FA.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	DisableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// tagNames returns the display names of tags.
func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// safeNext returns next when it is a local path, otherwise fallback. It
// keeps the login redirect from sending users to another host.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
