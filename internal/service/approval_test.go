package service

import (
	"context"
	"testing"

	"givebox/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveStandardAttempt(t *testing.T) {
	r := newRig()
	g := r.addGiveaway(model.Giveaway{
		ID: 10, Kind: model.KindStandard, Requirement: model.RequirementManualApproval,
		Sequence: seqPtr(1), StaticContent: "CODE-1",
	})

	ctx := context.Background()
	user, err := r.store.UpsertUser(ctx, r.bot.ID, "100", "u", "Alice")
	require.NoError(t, err)
	_, err = r.store.CreateAttempt(ctx, "att1", user.ID, g.ID, model.AttemptPending, "proof")
	require.NoError(t, err)

	out, err := r.approval.Approve(ctx, "att1", "looks good")
	require.NoError(t, err)
	assert.True(t, out.Delivered)
	assert.False(t, out.OutOfStock)
	assert.Equal(t, model.AttemptApproved, out.Attempt.Status)
	assert.Contains(t, r.sender.lastText(), "CODE-1")
	assert.Contains(t, r.bus.eventTypes(), "attempt.approved")

	assert.Equal(t, "looks good", r.store.attempts["att1"].AdminNotes)
}

func TestApproveIsExactlyOnce(t *testing.T) {
	r := newRig()
	g := r.addGiveaway(model.Giveaway{
		ID: 20, Kind: model.KindUnique, Requirement: model.RequirementManualApproval, Sequence: seqPtr(1),
	})
	r.store.addItem(g.ID, "KEY-AAA")

	ctx := context.Background()
	user, err := r.store.UpsertUser(ctx, r.bot.ID, "100", "u", "Alice")
	require.NoError(t, err)
	_, err = r.store.CreateAttempt(ctx, "att1", user.ID, g.ID, model.AttemptPending, "proof")
	require.NoError(t, err)

	out, err := r.approval.Approve(ctx, "att1", "")
	require.NoError(t, err)
	assert.Contains(t, r.sender.lastText(), "KEY-AAA")
	assert.False(t, out.OutOfStock)

	// a second approval of the same attempt is refused, no second item moves
	_, err = r.approval.Approve(ctx, "att1", "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestApproveUniqueOutOfStockStillCommits(t *testing.T) {
	r := newRig()
	g := r.addGiveaway(model.Giveaway{
		ID: 20, Kind: model.KindUnique, Requirement: model.RequirementManualApproval, Sequence: seqPtr(1),
	})

	ctx := context.Background()
	user, err := r.store.UpsertUser(ctx, r.bot.ID, "100", "u", "Alice")
	require.NoError(t, err)
	_, err = r.store.CreateAttempt(ctx, "att1", user.ID, g.ID, model.AttemptPending, "proof")
	require.NoError(t, err)

	out, err := r.approval.Approve(ctx, "att1", "")
	require.NoError(t, err)
	assert.True(t, out.OutOfStock)
	assert.Equal(t, model.AttemptApproved, r.store.attempts["att1"].Status)
	assert.Equal(t, defaultShortageNotice, r.sender.lastText())
	assert.Contains(t, r.bus.eventTypes(), "stock.empty")
}

func TestRejectAttempt(t *testing.T) {
	r := newRig()
	tmpl := "Sorry {name}, not this time."
	g := r.addGiveaway(model.Giveaway{
		ID: 10, Kind: model.KindStandard, Requirement: model.RequirementManualApproval,
		Sequence: seqPtr(1), StaticContent: "CODE-1", FailureTemplate: &tmpl,
	})

	ctx := context.Background()
	user, err := r.store.UpsertUser(ctx, r.bot.ID, "100", "u", "Alice")
	require.NoError(t, err)
	_, err = r.store.CreateAttempt(ctx, "att1", user.ID, g.ID, model.AttemptPending, "proof")
	require.NoError(t, err)

	require.NoError(t, r.approval.Reject(ctx, "att1", "fake screenshot"))
	assert.Equal(t, model.AttemptRejected, r.store.attempts["att1"].Status)
	assert.Equal(t, "Sorry Alice, not this time.", r.sender.lastText())
	assert.Contains(t, r.bus.eventTypes(), "attempt.rejected")

	// deciding twice is refused
	assert.ErrorIs(t, r.approval.Reject(ctx, "att1", ""), model.ErrNotFound)
}

func TestRejectedAttemptAllowsRetry(t *testing.T) {
	r := newRig()
	g := r.addGiveaway(model.Giveaway{
		ID: 10, Kind: model.KindStandard, Requirement: model.RequirementManualApproval,
		Sequence: seqPtr(1), StaticContent: "CODE-1",
	})

	ctx := context.Background()
	user, err := r.store.UpsertUser(ctx, r.bot.ID, "100", "u", "Alice")
	require.NoError(t, err)
	_, err = r.store.CreateAttempt(ctx, "att1", user.ID, g.ID, model.AttemptPending, "proof")
	require.NoError(t, err)
	require.NoError(t, r.approval.Reject(ctx, "att1", ""))

	// the rejection does not block a fresh claim
	require.NoError(t, r.claims.HandleUpdate(ctx, r.bot, textUpdate(100, "1")))
	assert.Equal(t, defaultProofPrompt, r.sender.lastText())
}
