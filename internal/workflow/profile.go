package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"inkpress/internal/models"
	"inkpress/internal/store"
	"inkpress/internal/validation"
)

// ProfileRepository is the profile persistence consumed by ProfileEditing.
// Update fills the stored columns the form does not carry back into p.
type ProfileRepository interface {
	Update(ctx context.Context, p *models.Profile) error
}

// ProfileSubmission is one submit of the profile settings form. ProfileID is
// the authenticated user; the update is always keyed by it.
type ProfileSubmission struct {
	ProfileID uuid.UUID
	Input     validation.ProfileInput
}

// ProfileOutcome is the terminal result of a profile edit. Profile is set
// only on success and holds the row as stored.
type ProfileOutcome struct {
	State       State
	Profile     *models.Profile
	Message     string
	FieldErrors validation.FieldErrors
	Input       validation.ProfileInput
}

// ProfileEditing runs the profile settings flow: validate, update, and map a
// username uniqueness conflict to its own message.
type ProfileEditing struct {
	profiles ProfileRepository
	opts     Options
}

// NewProfileEditing wires the profile workflow.
func NewProfileEditing(profiles ProfileRepository, opts Options) *ProfileEditing {
	return &ProfileEditing{profiles: profiles, opts: opts}
}

// Submit runs one profile submission to completion.
func (w *ProfileEditing) Submit(ctx context.Context, sub ProfileSubmission) ProfileOutcome {
	m := newMachine(w.opts.Observe)
	out := ProfileOutcome{Input: sub.Input}

	m.to(StateValidating)
	if errs := validation.Profile(&out.Input); errs != nil {
		out.State = m.to(StateInvalid)
		out.FieldErrors = errs
		out.Message = MsgInvalid
		return out
	}

	release, ok := acquire(ctx, w.opts.Guard, FormKey(sub.ProfileID, FormProfile))
	if !ok {
		out.State = m.to(StateBusy)
		out.Message = MsgBusy
		return out
	}
	defer release()

	m.to(StateSubmitting)
	p := &models.Profile{
		ID:          sub.ProfileID,
		Username:    out.Input.Username,
		DisplayName: nullable(out.Input.DisplayName),
		Bio:         nullable(out.Input.Bio),
	}
	if err := w.profiles.Update(ctx, p); err != nil {
		out.State = m.to(StateFailed)
		if store.IsConflict(err) {
			out.Message = MsgUsernameTaken
			out.FieldErrors = validation.FieldErrors{"username": MsgUsernameTaken}
			return out
		}
		slog.Error("update profile failed", "profile_id", sub.ProfileID, "error", err)
		out.Message = MsgProfileFailed
		return out
	}

	out.State = m.to(StateSucceeded)
	out.Profile = p
	out.Message = MsgProfileSaved
	return out
}
