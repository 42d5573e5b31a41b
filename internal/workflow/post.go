// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"inkpress/internal/models"
	"inkpress/internal/store"
	"inkpress/internal/validation"
)

// User-facing status messages.
const (
	MsgDraftSaved    = "Draft saved."
	MsgCreateFailed  = "Failed to save the post."
	MsgUpdateFailed  = "Failed to update the post."
	MsgBusy          = "A submission is already in progress."
	MsgPostNotFound  = "Post not found."
	MsgInvalid       = "Please fix the highlighted fields."
	MsgUsernameTaken = "That username is already taken."
	MsgProfileFailed = "Failed to update the profile."
	MsgProfileSaved  = "Profile updated."
)

// Intent is the author's choice between keeping a post as a draft and
// publishing it.
type Intent string

const (
	IntentDraft   Intent = "draft"
	IntentPublish Intent = "publish"
)

// ParseIntent maps a form value to an Intent. Anything but "publish" is a
// draft.
func ParseIntent(s string) Intent {
	if s == string(IntentPublish) {
		return IntentPublish
	}
	return IntentDraft
}

// PostRepository is the post persistence consumed by the post workflows.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	FindByIDForAuthor(ctx context.Context, id, authorID uuid.UUID) (*models.Post, error)
}

// TagRepository attaches tags to a post, replacing the previous set.
type TagRepository interface {
	Replace(ctx context.Context, postID uuid.UUID, names []string) error
}

// SlugMaker produces a fresh unique slug for a title.
type SlugMaker interface {
	Make(title string) string
}

// PostSubmission is one submit of the new-post or edit-post form.
type PostSubmission struct {
	AuthorID uuid.UUID
	Intent   Intent
	Input    validation.PostInput
}

// PostOutcome is the terminal result of a post workflow. Input echoes the
// submitted values so the form can be re-rendered for a retry.
type PostOutcome struct {
	State       State
	Post        *models.Post
	Redirect    string
	Message     string
	FieldErrors validation.FieldErrors
	Input       validation.PostInput
}

// Options carries the optional collaborators shared by all workflows.
type Options struct {
	// Guard enforces one in-flight submission per form. Nil disables it.
	Guard Guard
	// Observe, when set, sees every state transition.
	Observe func(from, to State)
}

// PostAuthoring runs the new-post flow:
// validate, generate slug, create, branch on draft or publish.
type PostAuthoring struct {
	posts PostRepository
	tags  TagRepository
	slugs SlugMaker
	opts  Options
}

// NewPostAuthoring wires the authoring workflow. tags may be nil.
func NewPostAuthoring(posts PostRepository, tags TagRepository, slugs SlugMaker, opts Options) *PostAuthoring {
	return &PostAuthoring{posts: posts, tags: tags, slugs: slugs, opts: opts}
}

// Submit runs one authoring submission to completion.
func (w *PostAuthoring) Submit(ctx context.Context, sub PostSubmission) PostOutcome {
	m := newMachine(w.opts.Observe)
	out := PostOutcome{Input: sub.Input}

	m.to(StateValidating)
	if errs := validation.Post(&out.Input); errs != nil {
		out.State = m.to(StateInvalid)
		out.FieldErrors = errs
		out.Message = MsgInvalid
		return out
	}

	release, ok := acquire(ctx, w.opts.Guard, FormKey(sub.AuthorID, FormNewPost))
	if !ok {
		out.State = m.to(StateBusy)
		out.Message = MsgBusy
		return out
	}
	defer release()

	m.to(StateSubmitting)
	in := out.Input
	created, err := w.posts.Create(ctx, &models.Post{
		AuthorID:      sub.AuthorID,
		Title:         in.Title,
		Slug:          w.slugs.Make(in.Title),
		Content:       nullable(in.Content),
		Excerpt:       nullable(in.Excerpt),
		CoverImageURL: nullable(in.CoverImageURL),
		Published:     sub.Intent == IntentPublish,
	})
	if err != nil {
		slog.Error("create post failed", "author_id", sub.AuthorID, "error", err)
		out.State = m.to(StateFailed)
		out.Message = MsgCreateFailed
		return out
	}

	replaceTags(ctx, w.tags, created.ID, in.Tags)
	out.Post = created
	return finishPost(m, out, sub.Intent, created.Slug)
}

// PostEditing runs the edit-post flow. The slug assigned at creation is never
// recomputed, whatever happens to the title.
type PostEditing struct {
	posts PostRepository
	tags  TagRepository
	opts  Options
}

// NewPostEditing wires the editing workflow. tags may be nil.
func NewPostEditing(posts PostRepository, tags TagRepository, opts Options) *PostEditing {
	return &PostEditing{posts: posts, tags: tags, opts: opts}
}

// Load fetches the post to edit. It fails with a not-found store error when
// the post does not exist or belongs to someone else.
func (w *PostEditing) Load(ctx context.Context, postID, authorID uuid.UUID) (*models.Post, error) {
	return w.posts.FindByIDForAuthor(ctx, postID, authorID)
}

// Submit runs one edit submission for postID to completion. Input is
// validated before the post is loaded, so an invalid outcome carries no Post.
func (w *PostEditing) Submit(ctx context.Context, postID uuid.UUID, sub PostSubmission) PostOutcome {
	m := newMachine(w.opts.Observe)
	out := PostOutcome{Input: sub.Input}

	m.to(StateValidating)
	if errs := validation.Post(&out.Input); errs != nil {
		out.State = m.to(StateInvalid)
		out.FieldErrors = errs
		out.Message = MsgInvalid
		return out
	}

	existing, err := w.Load(ctx, postID, sub.AuthorID)
	if err != nil {
		if store.IsNotFound(err) {
			out.State = m.to(StateNotFound)
			out.Message = MsgPostNotFound
			return out
		}
		slog.Error("load post for edit failed", "post_id", postID, "error", err)
		out.State = m.to(StateFailed)
		out.Message = MsgUpdateFailed
		return out
	}
	out.Post = existing

	release, ok := acquire(ctx, w.opts.Guard, FormKey(sub.AuthorID, FormEditPost(postID)))
	if !ok {
		out.State = m.to(StateBusy)
		out.Message = MsgBusy
		return out
	}
	defer release()

	m.to(StateSubmitting)
	in := out.Input
	updated := *existing
	updated.Title = in.Title
	updated.Content = nullable(in.Content)
	updated.Excerpt = nullable(in.Excerpt)
	updated.CoverImageURL = nullable(in.CoverImageURL)
	updated.Published = sub.Intent == IntentPublish

	if err := w.posts.Update(ctx, &updated); err != nil {
		slog.Error("update post failed", "post_id", postID, "error", err)
		out.State = m.to(StateFailed)
		out.Message = MsgUpdateFailed
		return out
	}

	replaceTags(ctx, w.tags, existing.ID, in.Tags)
	out.Post = &updated
	return finishPost(m, out, sub.Intent, existing.Slug)
}

// finishPost branches a successful write on the author's intent.
func finishPost(m *machine, out PostOutcome, intent Intent, slug string) PostOutcome {
	if intent == IntentPublish {
		out.State = m.to(StatePublished)
		out.Redirect = models.PostPath(slug)
		return out
	}
	out.State = m.to(StateSavedDraft)
	out.Message = MsgDraftSaved
	return out
}

// replaceTags persists the post's tags. The post write already succeeded,
// so a failure here is logged and does not change the outcome.
func replaceTags(ctx context.Context, tags TagRepository, postID uuid.UUID, names []string) {
	if tags == nil {
		return
	}
	if err := tags.Replace(ctx, postID, names); err != nil {
		slog.Error("replace post tags failed", "post_id", postID, "error", err)
	}
}

// acquire takes the form guard. A guard backend error admits the
// submission.
func acquire(ctx context.Context, g Guard, key string) (func(), bool) {
	if g == nil {
		return func() {}, true
	}
	release, ok, err := g.Acquire(ctx, key)
	if err != nil {
		slog.Warn("form guard unavailable, continuing without it", "key", key, "error", err)
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return release, true
}

// nullable maps an empty optional field to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
