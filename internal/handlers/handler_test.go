// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: in-memory stores, a recording page cache and request helpers.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/session"
	"inkpress/internal/store"
	"inkpress/internal/workflow"
)

var errBackend = errors.New("backend down")

func notFound(op string) error {
	return &store.Error{Op: op, Kind: store.KindNotFound, Err: store.ErrNotFound}
}

func strPtr(s string) *string { return &s }

// fakePosts is an in-memory post store serving both the public readers and
// the authoring workflows.
type fakePosts struct {
	mu        sync.Mutex
	posts     map[uuid.UUID]models.Post
	tagged    map[string][]uuid.UUID
	createErr error
	listErr   error
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: make(map[uuid.UUID]models.Post), tagged: make(map[string][]uuid.UUID)}
}

func (f *fakePosts) tag(tagSlug string, ids ...uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagged[tagSlug] = append(f.tagged[tagSlug], ids...)
}

func (f *fakePosts) add(p models.Post) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
		p.UpdatedAt = p.CreatedAt
	}
	if p.Published && p.PublishedAt == nil {
		at := p.CreatedAt
		p.PublishedAt = &at
	}
	f.posts[p.ID] = p
	return p
}

func (f *fakePosts) get(id uuid.UUID) (models.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	return p, ok
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := f.add(*p)
	return &created, nil
}

func (f *fakePosts) Update(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.posts[p.ID]
	if !ok || cur.AuthorID != p.AuthorID {
		return notFound("update post")
	}
	updated := *p
	updated.Slug = cur.Slug
	updated.UpdatedAt = time.Now()
	f.posts[p.ID] = updated
	return nil
}

func (f *fakePosts) FindByIDForAuthor(_ context.Context, id, authorID uuid.UUID) (*models.Post, error) {
	p, ok := f.get(id)
	if !ok || p.AuthorID != authorID {
		return nil, notFound("find post by id")
	}
	return &p, nil
}

func (f *fakePosts) FindPublishedBySlug(_ context.Context, slug string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.Slug == slug && p.Published {
			return &p, nil
		}
	}
	return nil, notFound("find post by slug")
}

func (f *fakePosts) FindPublishedByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	p, ok := f.get(id)
	if !ok || !p.Published {
		return nil, notFound("find published post by id")
	}
	return &p, nil
}

func (f *fakePosts) sorted(keep func(models.Post) bool) []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Post
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakePosts) ListPublished(_ context.Context, limit, offset int) ([]models.Post, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.sorted(func(p models.Post) bool { return p.Published })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakePosts) ListPublishedByTag(_ context.Context, tagSlug string) ([]models.Post, error) {
	f.mu.Lock()
	ids := make(map[uuid.UUID]bool)
	for _, id := range f.tagged[tagSlug] {
		ids[id] = true
	}
	f.mu.Unlock()
	return f.sorted(func(p models.Post) bool { return p.Published && ids[p.ID] }), nil
}

func (f *fakePosts) ListByAuthor(_ context.Context, authorID uuid.UUID, includeDrafts bool) ([]models.Post, error) {
	return f.sorted(func(p models.Post) bool {
		return p.AuthorID == authorID && (p.Published || includeDrafts)
	}), nil
}

// fakeTags serves tag lookups and records replaced tag sets.
type fakeTags struct {
	mu      sync.Mutex
	tags    []models.Tag
	byPost  map[uuid.UUID][]string
	listErr error
}

func newFakeTags(tags ...models.Tag) *fakeTags {
	return &fakeTags{tags: tags, byPost: make(map[uuid.UUID][]string)}
}

func (f *fakeTags) FindBySlug(_ context.Context, slug string) (*models.Tag, error) {
	for _, t := range f.tags {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, notFound("find tag")
}

func (f *fakeTags) ListForPost(_ context.Context, postID uuid.UUID) ([]models.Tag, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tag
	for _, n := range f.byPost[postID] {
		out = append(out, models.Tag{ID: uuid.New(), Name: n, Slug: strings.ToLower(n)})
	}
	return out, nil
}

func (f *fakeTags) Replace(_ context.Context, postID uuid.UUID, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byPost[postID] = names
	return nil
}

// fakeProfiles is an in-memory profile store with a unique username index.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]models.Profile
}

func newFakeProfiles(ps ...models.Profile) *fakeProfiles {
	f := &fakeProfiles{profiles: make(map[uuid.UUID]models.Profile)}
	for _, p := range ps {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) FindByUsername(_ context.Context, username string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if strings.EqualFold(p.Username, username) {
			return &p, nil
		}
	}
	return nil, notFound("find profile by username")
}

func (f *fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, notFound("find profile by id")
	}
	return &p, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, other := range f.profiles {
		if id != p.ID && strings.EqualFold(other.Username, p.Username) {
			return &store.Error{Op: "update profile", Kind: store.KindConflict, Constraint: "profiles_username_key", Err: errors.New("duplicate key")}
		}
	}
	old, ok := f.profiles[p.ID]
	if !ok {
		return notFound("update profile")
	}
	p.AvatarURL = old.AvatarURL
	p.CreatedAt = old.CreatedAt
	f.profiles[p.ID] = *p
	return nil
}

// fakeLikes keeps likes as a set of user/post pairs.
type fakeLikes struct {
	mu    sync.Mutex
	likes map[[2]uuid.UUID]bool
	err   error
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{likes: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeLikes) Exists(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likes[[2]uuid.UUID{userID, postID}], f.err
}

func (f *fakeLikes) Count(_ context.Context, postID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.likes {
		if k[1] == postID {
			n++
		}
	}
	return n, f.err
}

func (f *fakeLikes) Toggle(ctx context.Context, userID, postID uuid.UUID) (bool, int, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	k := [2]uuid.UUID{userID, postID}
	if f.likes[k] {
		delete(f.likes, k)
	} else {
		f.likes[k] = true
	}
	liked := f.likes[k]
	f.mu.Unlock()
	n, _ := f.Count(ctx, postID)
	return liked, n, nil
}

// fakeCache records page cache traffic.
type fakeCache struct {
	mu          sync.Mutex
	pages       map[string][]byte
	invalidated []string
	all         int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.pages[key]
	return b, ok
}

func (c *fakeCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = body
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.pages, k)
		c.invalidated = append(c.invalidated, k)
	}
}

func (c *fakeCache) InvalidatePost(_ context.Context, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, "post:"+slug)
}

func (c *fakeCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = make(map[string][]byte)
	c.all++
}

// fakeSessions records session writes.
type fakeSessions struct {
	created   []*session.Data
	updated   []*session.Data
	destroyed int
	err       error
}

func (s *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	copied := *data
	s.created = append(s.created, &copied)
	http.SetCookie(w, &http.Cookie{Name: "ink_session", Value: "test-session", Path: "/"})
	return "test-session", nil
}

func (s *fakeSessions) Update(_ context.Context, _ *http.Request, data *session.Data) error {
	if s.err != nil {
		return s.err
	}
	copied := *data
	s.updated = append(s.updated, &copied)
	return nil
}

func (s *fakeSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	s.destroyed++
	return s.err
}

// fakeUsers stores accounts with plain-text passwords.
type fakeUsers struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	passwords map[uuid.UUID]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*models.User), passwords: make(map[uuid.UUID]string)}
}

func (f *fakeUsers) add(email, password string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: uuid.New(), Email: email}
	f.users[u.ID] = u
	f.passwords[u.ID] = password
	return u
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, notFound("find user by email")
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, notFound("find user by id")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].TOTPSecret = &secret
	return nil
}

func (f *fakeUsers) EnableTOTP(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].TOTPEnabled = true
	return nil
}

func (f *fakeUsers) DisableTOTP(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].TOTPEnabled = false
	f.users[id].TOTPSecret = nil
	return nil
}

func (f *fakeUsers) CheckPassword(u *models.User, password string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwords[u.ID] == password
}

// busyGuard reports every form as already in flight.
type busyGuard struct{}

func (busyGuard) Acquire(context.Context, string) (func(), bool, error) {
	return nil, false, nil
}

// fixedSlugs hands out one predictable slug.
type fixedSlugs string

func (s fixedSlugs) Make(string) string { return string(s) }

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(false)
	require.NoError(t, err)
	return r
}

// testSession creates a fully signed-in session.
func testSession(userID uuid.UUID, username string) *session.Data {
	return &session.Data{
		UserID:    userID,
		Email:     username + "@example.com",
		Username:  username,
		TwoFADone: true,
		CreatedAt: time.Now(),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withSession attaches sess to r.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

// formRequest builds a urlencoded POST.
func formRequest(target string, form url.Values) *http.Request {
	r, _ := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func htmx(r *http.Request) *http.Request {
	r.Header.Set("HX-Request", "true")
	return r
}

// writeEnv wires the Write handlers over fakes.
type writeEnv struct {
	posts  *fakePosts
	tags   *fakeTags
	cache  *fakeCache
	write  *Write
	author *session.Data
}

func newWriteEnv(t *testing.T, opts workflow.Options, covers CoverUploader) *writeEnv {
	t.Helper()
	env := &writeEnv{
		posts:  newFakePosts(),
		tags:   newFakeTags(),
		cache:  newFakeCache(),
		author: testSession(uuid.New(), "writer"),
	}
	authoring := workflow.NewPostAuthoring(env.posts, env.tags, fixedSlugs("first-post-abc123"), opts)
	editing := workflow.NewPostEditing(env.posts, env.tags, opts)
	env.write = NewWrite(testRenderer(t), authoring, editing, env.tags, covers, env.cache)
	return env
}
