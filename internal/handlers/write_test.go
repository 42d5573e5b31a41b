// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpress/internal/models"
	"inkpress/internal/workflow"
)

func postFormValues(title, intent, tags string) url.Values {
	return url.Values{
		"title":   {title},
		"content": {"Some *markdown*."},
		"excerpt": {"Short."},
		"tags":    {tags},
		"intent":  {intent},
	}
}

func (e *writeEnv) create(form url.Values, hx bool) *httptest.ResponseRecorder {
	r := formRequest("/write", form)
	if hx {
		r = htmx(r)
	}
	w := httptest.NewRecorder()
	e.write.CreatePost(w, withSession(r, e.author))
	return w
}

func (e *writeEnv) update(id uuid.UUID, form url.Values, sess any) *httptest.ResponseRecorder {
	r := withChiURLParam(formRequest("/write/"+id.String(), form), "id", id.String())
	author := e.author
	if s, ok := sess.(*models.Profile); ok {
		author = testSession(s.ID, s.Username)
	}
	w := httptest.NewRecorder()
	e.write.UpdatePost(w, withSession(r, author))
	return w
}

func TestNewPostForm(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)

	r := withSession(httptest.NewRequest(http.MethodGet, "/write", nil), env.author)
	w := httptest.NewRecorder()
	env.write.NewPost(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/write"`)
	assert.Contains(t, body, "New post")
	assert.NotContains(t, body, "data-upload", "file picker is hidden without storage")
}

func TestCreatePostPublish(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)

	w := env.create(postFormValues("First post", "publish", "go, web"), false)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/posts/first-post-abc123", w.Header().Get("Location"))

	require.Len(t, env.posts.posts, 1)
	for _, p := range env.posts.posts {
		assert.True(t, p.Published)
		assert.Equal(t, env.author.UserID, p.AuthorID)
		assert.Equal(t, []string{"go", "web"}, env.tags.byPost[p.ID])
	}
	assert.Contains(t, env.cache.invalidated, "post:first-post-abc123")
}

func TestCreatePostPublishHTMX(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)

	w := env.create(postFormValues("First post", "publish", ""), true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/posts/first-post-abc123", w.Header().Get("HX-Redirect"))
}

func TestCreatePostDraft(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)

	w := env.create(postFormValues("Rough idea", "draft", ""), true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.posts.posts, 1)
	var id uuid.UUID
	for _, p := range env.posts.posts {
		assert.False(t, p.Published)
		id = p.ID
	}

	body := w.Body.String()
	assert.Equal(t, "/write/"+id.String(), w.Header().Get("HX-Push-Url"))
	assert.Contains(t, body, workflow.MsgDraftSaved)
	assert.Contains(t, body, `action="/write/`+id.String()+`"`, "next save edits the draft instead of creating another")
	assert.Contains(t, body, "flash-success")
	assert.NotContains(t, body, "<html", "htmx gets only the content block")
}

func TestCreatePostInvalid(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)

	w := env.create(postFormValues("   ", "publish", ""), false)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), workflow.MsgInvalid)
	assert.Contains(t, w.Body.String(), "Title is required.")
	assert.Empty(t, env.posts.posts)
}

func TestCreatePostBusy(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{Guard: busyGuard{}}, nil)

	w := env.create(postFormValues("Double click", "publish", ""), false)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), workflow.MsgBusy)
	assert.Contains(t, w.Body.String(), `value="Double click"`)
	assert.Empty(t, env.posts.posts)
}

func TestCreatePostStoreFailure(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)
	env.posts.createErr = errBackend

	w := env.create(postFormValues("Keep my text", "publish", "go"), false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), workflow.MsgCreateFailed)
	assert.Contains(t, w.Body.String(), `value="Keep my text"`)
	assert.Contains(t, w.Body.String(), `action="/write"`)
}

func TestEditPost(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)
	post := env.posts.add(models.Post{AuthorID: env.author.UserID, Title: "Original", Slug: "original-x1", Content: strPtr("Body")})
	env.tags.byPost[post.ID] = []string{"go"}

	edit := func(id string, sess any) *httptest.ResponseRecorder {
		r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/write/"+id, nil), "id", id)
		author := env.author
		if s, ok := sess.(*models.Profile); ok {
			author = testSession(s.ID, s.Username)
		}
		w := httptest.NewRecorder()
		env.write.EditPost(w, withSession(r, author))
		return w
	}

	w := edit(post.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="Original"`)
	assert.Contains(t, w.Body.String(), `value="go"`)
	assert.Contains(t, w.Body.String(), "/posts/original-x1")

	stranger := &models.Profile{ID: uuid.New(), Username: "stranger"}
	assert.Equal(t, http.StatusNotFound, edit(post.ID.String(), stranger).Code)
	assert.Equal(t, http.StatusNotFound, edit("not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, edit(uuid.NewString(), nil).Code)
}

func TestUpdatePostKeepsSlug(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)
	post := env.posts.add(models.Post{AuthorID: env.author.UserID, Title: "Before", Slug: "before-y2"})

	w := env.update(post.ID, postFormValues("After the rename", "publish", "news"), nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/posts/before-y2", w.Header().Get("Location"))

	stored, _ := env.posts.get(post.ID)
	assert.Equal(t, "After the rename", stored.Title)
	assert.Equal(t, "before-y2", stored.Slug)
	assert.True(t, stored.Published)
	assert.Equal(t, []string{"news"}, env.tags.byPost[post.ID])
	assert.Contains(t, env.cache.invalidated, "post:before-y2")
}

func TestUpdatePostUnpublish(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)
	post := env.posts.add(models.Post{AuthorID: env.author.UserID, Title: "Live", Slug: "live-z3", Published: true})

	w := env.update(post.ID, postFormValues("Live", "draft", ""), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), workflow.MsgDraftSaved)
	stored, _ := env.posts.get(post.ID)
	assert.False(t, stored.Published)
	assert.Contains(t, env.cache.invalidated, "post:live-z3", "an unpublished post must leave the cache")
}

func TestUpdatePostNotOwned(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)
	post := env.posts.add(models.Post{AuthorID: env.author.UserID, Title: "Mine", Slug: "mine-a4"})
	stranger := &models.Profile{ID: uuid.New(), Username: "stranger"}

	w := env.update(post.ID, postFormValues("Hijacked", "publish", ""), stranger)

	assert.Equal(t, http.StatusNotFound, w.Code)
	stored, _ := env.posts.get(post.ID)
	assert.Equal(t, "Mine", stored.Title)
}

func TestUpdatePostInvalid(t *testing.T) {
	env := newWriteEnv(t, workflow.Options{}, nil)
	post := env.posts.add(models.Post{AuthorID: env.author.UserID, Title: "Valid", Slug: "valid-b5"})

	w := env.update(post.ID, postFormValues("", "publish", ""), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/write/`+post.ID.String()+`"`)
	assert.Contains(t, body, "Edit post")
	assert.NotContains(t, body, "New post")
	stored, _ := env.posts.get(post.ID)
	assert.Equal(t, "Valid", stored.Title)
}
