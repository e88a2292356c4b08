package service

import (
	"context"
	"testing"

	"givebox/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingPrerequisitesNoThreshold(t *testing.T) {
	r := newRig()
	g := r.addGiveaway(model.Giveaway{ID: 1, Sequence: seqPtr(5)})

	missing, err := MissingPrerequisites(context.Background(), r.store, g, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMissingPrerequisitesIgnoresHigherSequences(t *testing.T) {
	r := newRig()
	r.addGiveaway(model.Giveaway{ID: 1, Sequence: seqPtr(1)})
	r.addGiveaway(model.Giveaway{ID: 2, Sequence: seqPtr(2)})
	r.addGiveaway(model.Giveaway{ID: 3, Sequence: seqPtr(4)})
	g := r.addGiveaway(model.Giveaway{ID: 4, Sequence: seqPtr(3), PrereqThreshold: seqPtr(2)})

	missing, err := MissingPrerequisites(context.Background(), r.store, g, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, missing)
}

func TestMissingPrerequisitesShrinksMonotonically(t *testing.T) {
	r := newRig()
	r.addGiveaway(model.Giveaway{ID: 1, Sequence: seqPtr(1)})
	r.addGiveaway(model.Giveaway{ID: 2, Sequence: seqPtr(2)})
	g := r.addGiveaway(model.Giveaway{ID: 3, Sequence: seqPtr(3), PrereqThreshold: seqPtr(2)})

	ctx := context.Background()
	_, err := r.store.CreateAttempt(ctx, "a1", 1, 1, model.AttemptApproved, "")
	require.NoError(t, err)

	missing, err := MissingPrerequisites(ctx, r.store, g, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, missing)

	// a pending attempt is not completion
	_, err = r.store.CreateAttempt(ctx, "a2", 1, 2, model.AttemptPending, "")
	require.NoError(t, err)
	missing, err = MissingPrerequisites(ctx, r.store, g, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, missing)

	_, err = r.store.CreateAttempt(ctx, "a3", 1, 2, model.AttemptApproved, "")
	require.NoError(t, err)
	missing, err = MissingPrerequisites(ctx, r.store, g, 1)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestJoinSequences(t *testing.T) {
	assert.Equal(t, "", JoinSequences(nil))
	assert.Equal(t, "2", JoinSequences([]int{2}))
	assert.Equal(t, "1 and 2", JoinSequences([]int{1, 2}))
	assert.Equal(t, "1, 2 and 3", JoinSequences([]int{1, 2, 3}))
}
