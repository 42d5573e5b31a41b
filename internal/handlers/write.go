// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/store"
	"inkpress/internal/validation"
	"inkpress/internal/workflow"
)

// Write groups the authoring handlers: the new-post and edit-post forms
// and the cover upload. Every route requires a signed-in user.
type Write struct {
	renderer  *render.Renderer
	authoring *workflow.PostAuthoring
	editing   *workflow.PostEditing
	tags      TagReader
	covers    CoverUploader
	pageCache PageCache
}

// NewWrite creates the Write handler group. covers and pageCache may be nil.
func NewWrite(renderer *render.Renderer, authoring *workflow.PostAuthoring, editing *workflow.PostEditing, tags TagReader, covers CoverUploader, pageCache PageCache) *Write {
	return &Write{
		renderer:  renderer,
		authoring: authoring,
		editing:   editing,
		tags:      tags,
		covers:    covers,
		pageCache: pageCache,
	}
}

// newPostAction is the target of the new-post form.
const newPostAction = "/write"

// postForm is what the post_form template needs besides the session.
type postForm struct {
	action  string
	post    *models.Post
	input   validation.PostInput
	errors  validation.FieldErrors
	message string
	kind    string
}

// NewPost renders the empty new-post form.
func (h *Write) NewPost(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, postForm{action: newPostAction})
}

// CreatePost runs the authoring workflow for one submission.
func (h *Write) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	out := h.authoring.Submit(r.Context(), workflow.PostSubmission{
		AuthorID: user.UserID,
		Intent:   workflow.ParseIntent(r.FormValue("intent")),
		Input:    postInputFromForm(r),
	})
	h.respond(w, r, out, newPostAction)
}

// EditPost renders the edit form for one of the user's posts.
func (h *Write) EditPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.NotFound(w, r)
		return
	}

	post, err := h.editing.Load(ctx, id, user.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			h.renderer.NotFound(w, r)
			return
		}
		slog.Error("load post for edit failed", "post_id", id, "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "The post could not be loaded.")
		return
	}

	tags, err := h.tags.ListForPost(ctx, post.ID)
	if err != nil {
		slog.Warn("load post tags failed", "post_id", post.ID, "error", err)
	}

	h.renderForm(w, r, http.StatusOK, postForm{
		action: editAction(post.ID),
		post:   post,
		input:  inputFromPost(post, tagNames(tags)),
	})
}

// UpdatePost runs the editing workflow for one submission.
func (h *Write) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.NotFound(w, r)
		return
	}

	out := h.editing.Submit(r.Context(), id, workflow.PostSubmission{
		AuthorID: user.UserID,
		Intent:   workflow.ParseIntent(r.FormValue("intent")),
		Input:    postInputFromForm(r),
	})
	h.respond(w, r, out, editAction(id))
}

// respond maps a workflow outcome to an HTTP response. action is the form
// target used when the form is shown again.
func (h *Write) respond(w http.ResponseWriter, r *http.Request, out workflow.PostOutcome, action string) {
	form := postForm{
		action:  action,
		post:    out.Post,
		input:   out.Input,
		errors:  out.FieldErrors,
		message: out.Message,
		kind:    "error",
	}

	switch out.State {
	case workflow.StatePublished:
		h.invalidate(r, out.Post)
		middleware.Redirect(w, r, out.Redirect)

	case workflow.StateSavedDraft:
		// A draft save may have unpublished the post.
		h.invalidate(r, out.Post)
		form.action = editAction(out.Post.ID)
		form.kind = "success"
		if middleware.IsHTMX(r) {
			w.Header().Set("HX-Push-Url", form.action)
		}
		h.renderForm(w, r, http.StatusOK, form)

	case workflow.StateInvalid:
		h.renderForm(w, r, http.StatusUnprocessableEntity, form)

	case workflow.StateBusy:
		h.renderForm(w, r, http.StatusConflict, form)

	case workflow.StateNotFound:
		h.renderer.NotFound(w, r)

	default:
		// Failed: the user keeps what they typed and can retry.
		h.renderForm(w, r, http.StatusOK, form)
	}
}

func (h *Write) invalidate(r *http.Request, post *models.Post) {
	if h.pageCache != nil && post != nil {
		h.pageCache.InvalidatePost(r.Context(), post.Slug)
	}
}

func (h *Write) renderForm(w http.ResponseWriter, r *http.Request, status int, f postForm) {
	editing := f.action != newPostAction
	title := "New post"
	switch {
	case f.post != nil:
		title = "Edit: " + f.post.Title
	case editing:
		title = "Edit post"
	}
	h.renderer.PageStatus(w, r, status, "post_form", &render.PageData{
		Title:   title,
		Section: "write",
		Data: map[string]any{
			"Action":         f.action,
			"Post":           f.post,
			"Editing":        editing,
			"Input":          f.input,
			"Errors":         f.errors,
			"Message":        f.message,
			"MessageType":    f.kind,
			"UploadsEnabled": h.covers != nil,
		},
	})
}

// postInputFromForm reads the post form fields. Tags arrive as one
// comma-separated field.
func postInputFromForm(r *http.Request) validation.PostInput {
	return validation.PostInput{
		Title:         r.FormValue("title"),
		Content:       r.FormValue("content"),
		Excerpt:       r.FormValue("excerpt"),
		CoverImageURL: r.FormValue("cover_image_url"),
		Tags:          validation.SplitTags(r.FormValue("tags")),
	}
}

// inputFromPost pre-fills the edit form from a stored post.
func inputFromPost(p *models.Post, tags []string) validation.PostInput {
	in := validation.PostInput{Title: p.Title, Tags: tags}
	if p.Content != nil {
		in.Content = *p.Content
	}
	if p.Excerpt != nil {
		in.Excerpt = *p.Excerpt
	}
	if p.CoverImageURL != nil {
		in.CoverImageURL = *p.CoverImageURL
	}
	return in
}

func editAction(id uuid.UUID) string {
	return "/write/" + id.String()
}
