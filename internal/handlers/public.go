// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"inkpress/internal/cache"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/store"
)

// homePageSize is the number of posts per home page.
const homePageSize = 20

// SitemapBuilder renders sitemap.xml. *sitemap.Builder satisfies it.
type SitemapBuilder interface {
	Build(ctx context.Context, now time.Time) ([]byte, error)
}

// Public groups handlers for the reader-facing site. Anonymous page views
// are served from the Valkey page cache when possible.
type Public struct {
	renderer  *render.Renderer
	posts     PostReader
	tags      TagReader
	profiles  ProfileReader
	likes     LikeStore
	sitemap   SitemapBuilder
	pageCache PageCache
}

// NewPublic creates a new Public handler group. pageCache may be nil.
func NewPublic(renderer *render.Renderer, posts PostReader, tags TagReader, profiles ProfileReader, likes LikeStore, sm SitemapBuilder, pageCache PageCache) *Public {
	return &Public{
		renderer:  renderer,
		posts:     posts,
		tags:      tags,
		profiles:  profiles,
		likes:     likes,
		sitemap:   sm,
		pageCache: pageCache,
	}
}

// Home lists published posts, newest first.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	key := ""
	if page == 1 {
		key = cache.HomeKey()
	}
	if p.serveCached(w, r, key) {
		return
	}

	// One extra row tells whether an older page exists.
	posts, err := p.posts.ListPublished(r.Context(), homePageSize+1, (page-1)*homePageSize)
	if err != nil {
		slog.Error("list published posts failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "Posts could not be loaded.")
		return
	}

	data := map[string]any{"Posts": posts}
	if len(posts) > homePageSize {
		data["Posts"] = posts[:homePageSize]
		data["NextPage"] = page + 1
	}

	p.renderCacheable(w, r, key, "home", &render.PageData{
		Section: "home",
		Data:    data,
	})
}

// Post renders a published post with its tags and like state. Drafts are
// not reachable here.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	key := cache.PostKey(slug)
	if p.serveCached(w, r, key) {
		return
	}

	ctx := r.Context()
	post, err := p.posts.FindPublishedBySlug(ctx, slug)
	if err != nil {
		if store.IsNotFound(err) {
			p.renderer.NotFound(w, r)
			return
		}
		slog.Error("find post by slug failed", "slug", slug, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The post could not be loaded.")
		return
	}

	user := middleware.CurrentUser(ctx)

	var (
		tags  []models.Tag
		count int
		liked bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tags, err = p.tags.ListForPost(gctx, post.ID)
		return err
	})
	g.Go(func() (err error) {
		count, err = p.likes.Count(gctx, post.ID)
		return err
	})
	if user != nil {
		g.Go(func() (err error) {
			liked, err = p.likes.Exists(gctx, user.UserID, post.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("load post details failed", "post_id", post.ID, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The post could not be loaded.")
		return
	}

	p.renderCacheable(w, r, key, "post", &render.PageData{
		Title: post.Title,
		Data: map[string]any{
			"Post":      post,
			"Tags":      tags,
			"LikeCount": count,
			"Liked":     liked,
			"IsAuthor":  user != nil && user.UserID == post.AuthorID,
		},
	})
}

// Tag lists the published posts carrying a tag.
func (p *Public) Tag(w http.ResponseWriter, r *http.Request) {
	tagSlug := chi.URLParam(r, "slug")
	key := cache.TagKey(tagSlug)
	if p.serveCached(w, r, key) {
		return
	}

	ctx := r.Context()
	tag, err := p.tags.FindBySlug(ctx, tagSlug)
	if err != nil {
		if store.IsNotFound(err) {
			p.renderer.NotFound(w, r)
			return
		}
		slog.Error("find tag failed", "slug", tagSlug, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The tag could not be loaded.")
		return
	}

	posts, err := p.posts.ListPublishedByTag(ctx, tagSlug)
	if err != nil {
		slog.Error("list posts by tag failed", "slug", tagSlug, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The tag could not be loaded.")
		return
	}

	p.renderCacheable(w, r, key, "tag", &render.PageData{
		Title: "#" + tag.Name,
		Data:  map[string]any{"Tag": tag, "Posts": posts},
	})
}

// Profile renders a user's public page. The owner also sees their drafts.
func (p *Public) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	profile, err := p.profiles.FindByUsername(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			p.renderer.NotFound(w, r)
			return
		}
		slog.Error("find profile failed", "username", username, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The profile could not be loaded.")
		return
	}

	isOwner := user != nil && user.UserID == profile.ID
	key := cache.ProfileKey(profile.Username)
	if !isOwner && p.serveCached(w, r, key) {
		return
	}

	posts, err := p.posts.ListByAuthor(ctx, profile.ID, isOwner)
	if err != nil {
		slog.Error("list posts by author failed", "profile_id", profile.ID, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The profile could not be loaded.")
		return
	}

	data := &render.PageData{
		Title:   profile.Name(),
		Section: "",
		Data: map[string]any{
			"Profile": profile,
			"Posts":   posts,
			"IsOwner": isOwner,
		},
	}
	if isOwner {
		data.Section = "profile"
		p.renderer.Page(w, r, "profile", data)
		return
	}
	p.renderCacheable(w, r, key, "profile", data)
}

// ToggleLike likes or unlikes a published post for the signed-in user.
// HTMX requests get the like button fragment back; plain form posts are
// redirected to the post.
func (p *Public) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)
	if user == nil {
		middleware.Redirect(w, r, middleware.LoginPath)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		p.renderer.NotFound(w, r)
		return
	}

	post, err := p.posts.FindPublishedByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			p.renderer.NotFound(w, r)
			return
		}
		slog.Error("find post for like failed", "post_id", id, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The like could not be saved.")
		return
	}

	liked, count, err := p.likes.Toggle(ctx, user.UserID, post.ID)
	if err != nil {
		slog.Error("toggle like failed", "post_id", post.ID, "user_id", user.UserID, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The like could not be saved.")
		return
	}

	if p.pageCache != nil {
		p.pageCache.Invalidate(ctx, cache.PostKey(post.Slug))
	}

	if !middleware.IsHTMX(r) {
		http.Redirect(w, r, post.Path(), http.StatusSeeOther)
		return
	}

	p.renderer.Fragment(w, r, http.StatusOK, "post", "like_button", &render.PageData{
		Data: map[string]any{
			"Post":      post,
			"Liked":     liked,
			"LikeCount": count,
		},
	})
}

// Sitemap serves sitemap.xml, cached for the page cache TTL.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if p.pageCache != nil {
		if body, ok := p.pageCache.Get(ctx, cache.SitemapKey()); ok {
			writeXML(w, body)
			return
		}
	}

	body, err := p.sitemap.Build(ctx, time.Now())
	if err != nil {
		slog.Error("build sitemap failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.pageCache != nil {
		p.pageCache.Set(ctx, cache.SitemapKey(), body)
	}
	writeXML(w, body)
}

// NotFound renders the 404 page for unknown routes.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderer.NotFound(w, r)
}

// serveCached writes the cached page for key and reports whether it did.
// Only full-page anonymous requests are served from the cache.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if !p.cacheable(r, key) {
		return false
	}
	body, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	writeHTML(w, body)
	return true
}

// renderCacheable renders a page, storing the result under key when the
// request is cacheable.
func (p *Public) renderCacheable(w http.ResponseWriter, r *http.Request, key, name string, data *render.PageData) {
	if !p.cacheable(r, key) {
		p.renderer.Page(w, r, name, data)
		return
	}

	body, err := p.renderer.Bytes(r, name, data)
	if err != nil {
		slog.Error("render page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.pageCache.Set(r.Context(), key, body)
	writeHTML(w, body)
}

func (p *Public) cacheable(r *http.Request, key string) bool {
	return p.pageCache != nil && key != "" &&
		middleware.SessionFromCtx(r.Context()) == nil && !middleware.IsHTMX(r)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
