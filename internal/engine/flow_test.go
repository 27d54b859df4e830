package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidvault/internal/events"
	"bidvault/internal/model"
)

// TestFullProjectLifecycle walks one project from posting to completion:
// post, bid, select, fund, pay the first milestone, survive a dispute, pay
// the rest.
func TestFullProjectLifecycle(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	p, err := f.registry.PostProject(ctx, owner, "warehouse retrofit",
		300, time.Now().Add(72*time.Hour), []int64{100, 200})
	require.NoError(t, err)
	require.Equal(t, 1, p.ID)

	bid, err := f.ledger.SubmitBid(ctx, bidder, p.ID, 300, 45, []int64{100, 200})
	require.NoError(t, err)
	require.NoError(t, f.registry.SelectBid(ctx, owner, p.ID, bid.Index))
	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 300))
	require.NoError(t, f.vault.ReleaseMilestonePayment(ctx, owner, p.ID, 0))

	d, err := f.arb.RaiseDispute(ctx, bidder, p.ID, "second milestone payment overdue")
	require.NoError(t, err)
	resolved, err := f.arb.VoteOnDispute(ctx, owner, d.ID, true)
	require.NoError(t, err)
	require.Equal(t, model.OutcomePaymentReleased, resolved.Outcome)

	require.NoError(t, f.vault.ReleaseMilestonePayment(ctx, owner, p.ID, 1))

	final, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, final.Active)
	require.True(t, final.AllMilestonesPaid())

	contractorBalance, err := f.store.PartyBalance(ctx, bidder)
	require.NoError(t, err)
	require.Equal(t, int64(300), contractorBalance)

	escrow, err := f.store.EscrowBalance(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, escrow)

	// Every state change left exactly one event behind.
	for _, key := range []string{
		events.ProjectPosted,
		events.BidSubmitted,
		events.BidSelected,
		events.FundsDeposited,
		events.DisputeRaised,
		events.DisputeResolved,
		events.ProjectClosed,
	} {
		require.Len(t, f.store.EventsByKey(key), 1, key)
	}
	require.Len(t, f.store.EventsByKey(events.MilestonePaid), 2)
}

// TestConservationOfFunds checks that deposits always equal escrow plus
// party payouts, across payouts and a penalty.
func TestConservationOfFunds(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	p := f.startProject(t)

	require.NoError(t, f.vault.Deposit(ctx, owner, p.ID, 250))
	require.NoError(t, f.vault.ReleaseMilestonePayment(ctx, owner, p.ID, 0))
	require.NoError(t, f.vault.PenalizeBidder(ctx, owner, p.ID))

	escrow, err := f.store.EscrowBalance(ctx, p.ID)
	require.NoError(t, err)
	bidderBalance, err := f.store.PartyBalance(ctx, bidder)
	require.NoError(t, err)
	ownerBalance, err := f.store.PartyBalance(ctx, owner)
	require.NoError(t, err)

	require.Equal(t, int64(250), escrow+bidderBalance+ownerBalance)
	require.Equal(t, int64(100), bidderBalance)
	require.Equal(t, int64(150), ownerBalance)
}
