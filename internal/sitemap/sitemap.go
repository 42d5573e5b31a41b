// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sitemap builds sitemap.xml for the public site: the static pages,
// every published post, every tag and every profile.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"inkpress/internal/models"
	"inkpress/internal/store"
)

// Change frequencies used by the entries.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one <url> entry.
type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// PostLister is satisfied by *store.PostStore.
type PostLister interface {
	ListPublishedEntries(ctx context.Context) ([]store.PublishedEntry, error)
}

// TagLister is satisfied by *store.TagStore.
type TagLister interface {
	List(ctx context.Context) ([]models.Tag, error)
}

// UsernameLister is satisfied by *store.ProfileStore.
type UsernameLister interface {
	ListUsernames(ctx context.Context) ([]string, error)
}

// Builder enumerates the public site.
type Builder struct {
	siteURL  string
	posts    PostLister
	tags     TagLister
	profiles UsernameLister
}

// New creates a Builder that emits absolute URLs under siteURL.
func New(siteURL string, posts PostLister, tags TagLister, profiles UsernameLister) *Builder {
	return &Builder{
		siteURL:  strings.TrimRight(siteURL, "/"),
		posts:    posts,
		tags:     tags,
		profiles: profiles,
	}
}

// Entries lists the sitemap URLs. now stamps the entries that have no
// modification time of their own.
func (b *Builder) Entries(ctx context.Context, now time.Time) ([]URL, error) {
	base := b.siteURL
	stamp := now.UTC().Format(time.RFC3339)

	urls := []URL{
		{Loc: base, LastMod: stamp, ChangeFreq: Daily, Priority: 1.0},
		{Loc: base + "/login", LastMod: stamp, ChangeFreq: Monthly, Priority: 0.5},
	}

	var (
		posts []store.PublishedEntry
		tags  []models.Tag
		users []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if posts, err = b.posts.ListPublishedEntries(gctx); err != nil {
			return fmt.Errorf("sitemap posts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if tags, err = b.tags.List(gctx); err != nil {
			return fmt.Errorf("sitemap tags: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if users, err = b.profiles.ListUsernames(gctx); err != nil {
			return fmt.Errorf("sitemap profiles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range posts {
		urls = append(urls, URL{
			Loc:        base + models.PostPath(p.Slug),
			LastMod:    p.UpdatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: Weekly,
			Priority:   0.8,
		})
	}

	for _, t := range tags {
		urls = append(urls, URL{Loc: base + models.TagPath(t.Slug), LastMod: stamp, ChangeFreq: Weekly, Priority: 0.6})
	}

	for _, u := range users {
		urls = append(urls, URL{Loc: base + models.ProfilePath(u), LastMod: stamp, ChangeFreq: Weekly, Priority: 0.7})
	}

	return urls, nil
}

// Encode renders urls as a sitemap document.
func Encode(urls []URL) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(urlSet{Xmlns: xmlns, URLs: urls}); err != nil {
		return nil, fmt.Errorf("sitemap encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Build is Entries followed by Encode.
func (b *Builder) Build(ctx context.Context, now time.Time) ([]byte, error) {
	urls, err := b.Entries(ctx, now)
	if err != nil {
		return nil, err
	}
	return Encode(urls)
}
