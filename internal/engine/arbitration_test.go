package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"bidvault/config"
	"bidvault/internal/engine"
	"bidvault/internal/events"
	"bidvault/internal/model"
)

func TestRaiseDispute(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	p := f.startProject(t)

	d, err := f.arb.RaiseDispute(ctx, bidder, p.ID, "milestone review stalled")
	require.NoError(t, err)
	require.Equal(t, 1, d.ID)
	require.Equal(t, bidder, d.RaisedBy)
	require.False(t, d.Resolved)

	got, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.DisputeRaised)
	require.Len(t, f.store.EventsByKey(events.DisputeRaised), 1)
}

func TestRaiseDisputeRejections(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	open := f.postProject(t)
	// Nothing to dispute before a contractor is bound.
	_, err := f.arb.RaiseDispute(ctx, owner, open.ID, "too early")
	require.ErrorIs(t, err, engine.ErrInvalidState)

	p := f.startProject(t)
	_, err = f.arb.RaiseDispute(ctx, other, p.ID, "not my project")
	require.ErrorIs(t, err, engine.ErrUnauthorized)

	_, err = f.arb.RaiseDispute(ctx, bidder, p.ID, "first")
	require.NoError(t, err)
	// One open dispute per project.
	_, err = f.arb.RaiseDispute(ctx, owner, p.ID, "second")
	require.ErrorIs(t, err, engine.ErrInvalidState)

	_, err = f.arb.RaiseDispute(ctx, owner, 99, "missing")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestSingleQuorumYesReleasesFreeze(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	p := f.startProject(t)
	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 300))

	d, err := f.arb.RaiseDispute(ctx, bidder, p.ID, "payment overdue")
	require.NoError(t, err)

	resolved, err := f.arb.VoteOnDispute(ctx, owner, d.ID, true)
	require.NoError(t, err)
	require.True(t, resolved.Resolved)
	require.Equal(t, model.OutcomePaymentReleased, resolved.Outcome)

	// The freeze lifts; payouts work again and no funds moved on their own.
	got, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, got.DisputeRaised)
	require.True(t, got.Active)
	require.NoError(t, f.vault.ReleaseMilestonePayment(ctx, owner, p.ID, 0))
}

func TestSingleQuorumNoWithholdsPayment(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	p := f.startProject(t)
	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 300))

	d, err := f.arb.RaiseDispute(ctx, owner, p.ID, "work below standard")
	require.NoError(t, err)

	resolved, err := f.arb.VoteOnDispute(ctx, owner, d.ID, false)
	require.NoError(t, err)
	require.Equal(t, model.OutcomePaymentWithheld, resolved.Outcome)

	// A lone rejection does not forfeit the contract: the project stays
	// active, escrow stays put, and no funds move.
	got, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
	require.False(t, got.DisputeRaised)

	escrow, err := f.store.EscrowBalance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(300), escrow)

	ownerBalance, err := f.store.PartyBalance(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, ownerBalance)
	require.Empty(t, f.store.EventsByKey(events.BidderPenalized))
	require.Len(t, f.store.EventsByKey(events.DisputeResolved), 1)

	// Forfeiting stays the owner's explicit call.
	require.NoError(t, f.vault.PenalizeBidder(ctx, owner, p.ID))
	require.Len(t, f.store.EventsByKey(events.BidderPenalized), 1)
}

func TestVoteRejections(t *testing.T) {
	f := newFixture(t, config.EngineConfig{DisputeQuorum: config.QuorumMajority})
	ctx := context.Background()
	p := f.startProject(t)

	d, err := f.arb.RaiseDispute(ctx, bidder, p.ID, "scope creep")
	require.NoError(t, err)

	_, err = f.arb.VoteOnDispute(ctx, other, d.ID, true)
	require.ErrorIs(t, err, engine.ErrUnauthorized)

	_, err = f.arb.VoteOnDispute(ctx, owner, d.ID, true)
	require.NoError(t, err)
	_, err = f.arb.VoteOnDispute(ctx, owner, d.ID, false)
	require.ErrorIs(t, err, engine.ErrDuplicateVote)

	_, err = f.arb.VoteOnDispute(ctx, owner, 99, true)
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestVoteOnResolvedDispute(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	p := f.startProject(t)

	d, err := f.arb.RaiseDispute(ctx, bidder, p.ID, "payment overdue")
	require.NoError(t, err)
	_, err = f.arb.VoteOnDispute(ctx, owner, d.ID, true)
	require.NoError(t, err)

	_, err = f.arb.VoteOnDispute(ctx, bidder, d.ID, false)
	require.ErrorIs(t, err, engine.ErrAlreadyResolved)
}

func TestMajorityQuorumWaitsForAllStakeholders(t *testing.T) {
	f := newFixture(t, config.EngineConfig{DisputeQuorum: config.QuorumMajority})
	ctx := context.Background()
	p := f.startProject(t)
	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 300))

	d, err := f.arb.RaiseDispute(ctx, bidder, p.ID, "quality concerns")
	require.NoError(t, err)

	pending, err := f.arb.VoteOnDispute(ctx, owner, d.ID, true)
	require.NoError(t, err)
	require.False(t, pending.Resolved)

	resolved, err := f.arb.VoteOnDispute(ctx, bidder, d.ID, true)
	require.NoError(t, err)
	require.True(t, resolved.Resolved)
	require.Equal(t, model.OutcomePaymentReleased, resolved.Outcome)
}

func TestMajorityQuorumSplitWithholdsPayment(t *testing.T) {
	f := newFixture(t, config.EngineConfig{DisputeQuorum: config.QuorumMajority})
	ctx := context.Background()
	p := f.startProject(t)
	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 300))

	d, err := f.arb.RaiseDispute(ctx, owner, p.ID, "deliverable contested")
	require.NoError(t, err)

	_, err = f.arb.VoteOnDispute(ctx, owner, d.ID, false)
	require.NoError(t, err)
	resolved, err := f.arb.VoteOnDispute(ctx, bidder, d.ID, true)
	require.NoError(t, err)
	require.Equal(t, model.OutcomePaymentWithheld, resolved.Outcome)

	// Withheld lifts the freeze without moving funds or closing the project.
	got, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
	require.False(t, got.DisputeRaised)

	escrow, err := f.store.EscrowBalance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(300), escrow)
}

func TestRejectedOperationLeavesStateUnchanged(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	p := f.startProject(t)
	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 100))

	before, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	eventsBefore := len(f.store.Events)

	// Fails at the funds check, after the state checks passed.
	require.ErrorIs(t, f.vault.ReleaseMilestonePayment(ctx, owner, p.ID, 1), engine.ErrInsufficientFunds)

	after, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Len(t, f.store.Events, eventsBefore)

	balance, err := f.store.EscrowBalance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}
