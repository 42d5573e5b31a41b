package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "saved_draft", StateSavedDraft.String())
	assert.Equal(t, "state(99)", State(99).String())
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateSubmitting.Terminal())
	assert.True(t, StatePublished.Terminal())
	assert.True(t, StateBusy.Terminal())
}

func TestMachineRejectsIllegalTransition(t *testing.T) {
	m := newMachine(nil)
	assert.Panics(t, func() { m.to(StatePublished) })
}

func TestLocalGuard(t *testing.T) {
	g := NewLocalGuard()
	ctx := context.Background()
	key := FormKey(uuid.New(), FormEditPost(uuid.New()))

	release, ok, err := g.Acquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = g.Acquire(ctx, key)
	assert.False(t, ok, "second acquire must fail while held")

	_, ok, _ = g.Acquire(ctx, "other")
	assert.True(t, ok, "different keys are independent")

	release()
	release() // idempotent

	_, ok, _ = g.Acquire(ctx, key)
	assert.True(t, ok, "key is free after release")
}
