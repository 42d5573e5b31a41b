package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inkpress/internal/models"
	"inkpress/internal/store"
	"inkpress/internal/validation"
)

func TestProfileEditingSuccess(t *testing.T) {
	repo := &mockProfiles{}
	id := uuid.New()
	repo.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
		return p.ID == id && p.Username == "jane" && p.DisplayName != nil && *p.DisplayName == "Jane" && p.Bio == nil
	})).Return(nil).Once()

	rec := &recorder{}
	w := NewProfileEditing(repo, Options{Observe: rec.observe})
	out := w.Submit(context.Background(), ProfileSubmission{
		ProfileID: id,
		Input:     validation.ProfileInput{Username: " jane ", DisplayName: "Jane"},
	})

	assert.Equal(t, StateSucceeded, out.State)
	assert.Equal(t, MsgProfileSaved, out.Message)
	require.NotNil(t, out.Profile)
	assert.Equal(t, []State{StateValidating, StateSubmitting, StateSucceeded}, rec.steps)
	repo.AssertExpectations(t)
}

func TestProfileEditingReturnsStoredProfile(t *testing.T) {
	repo := &mockProfiles{}
	id := uuid.New()
	avatar := "https://cdn.example.com/a.png"
	joined := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		p := args.Get(1).(*models.Profile)
		p.AvatarURL = &avatar
		p.CreatedAt = joined
	}).Return(nil).Once()

	w := NewProfileEditing(repo, Options{})
	out := w.Submit(context.Background(), ProfileSubmission{
		ProfileID: id,
		Input:     validation.ProfileInput{Username: "jane"},
	})

	require.Equal(t, StateSucceeded, out.State)
	require.NotNil(t, out.Profile)
	assert.Equal(t, id, out.Profile.ID)
	assert.Equal(t, "jane", out.Profile.Username)
	require.NotNil(t, out.Profile.AvatarURL)
	assert.Equal(t, avatar, *out.Profile.AvatarURL)
	assert.Equal(t, joined, out.Profile.CreatedAt)
	repo.AssertExpectations(t)
}

func TestProfileEditingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{
			name: "username conflict",
			err:  &store.Error{Op: "update profile", Kind: store.KindConflict, Constraint: "profiles_username_key", Err: errors.New("23505")},
			msg:  MsgUsernameTaken,
		},
		{
			name: "generic failure",
			err:  errors.New("connection refused"),
			msg:  MsgProfileFailed,
		},
		{
			name: "not found is still generic",
			err:  &store.Error{Op: "update profile", Kind: store.KindNotFound, Err: store.ErrNotFound},
			msg:  MsgProfileFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProfiles{}
			repo.On("Update", mock.Anything, mock.Anything).Return(tt.err).Once()

			w := NewProfileEditing(repo, Options{})
			out := w.Submit(context.Background(), ProfileSubmission{
				ProfileID: uuid.New(),
				Input:     validation.ProfileInput{Username: "taken_name"},
			})

			assert.Equal(t, StateFailed, out.State)
			assert.Equal(t, tt.msg, out.Message)
			assert.Equal(t, "taken_name", out.Input.Username)
			repo.AssertNumberOfCalls(t, "Update", 1)
		})
	}
}

func TestProfileEditingInvalidMakesNoCall(t *testing.T) {
	repo := &mockProfiles{}
	w := NewProfileEditing(repo, Options{})

	out := w.Submit(context.Background(), ProfileSubmission{
		ProfileID: uuid.New(),
		Input:     validation.ProfileInput{Username: "no spaces allowed"},
	})

	assert.Equal(t, StateInvalid, out.State)
	assert.Contains(t, out.FieldErrors, "username")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProfileEditingBusy(t *testing.T) {
	repo := &mockProfiles{}
	guard := NewLocalGuard()
	id := uuid.New()

	release, ok, err := guard.Acquire(context.Background(), FormKey(id, FormProfile))
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	w := NewProfileEditing(repo, Options{Guard: guard})
	out := w.Submit(context.Background(), ProfileSubmission{ProfileID: id, Input: validation.ProfileInput{Username: "jane"}})

	assert.Equal(t, StateBusy, out.State)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
