package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bidvault/internal/engine"
	"bidvault/internal/engine/enginetest"
)

func seed(t *testing.T) (*Service, *enginetest.MemStore) {
	t.Helper()
	store := enginetest.NewMemStore()
	logger := zap.NewNop()

	registry := engine.NewProjectRegistry(store, logger)
	ledger := engine.NewBidLedger(store, logger)

	ctx := context.Background()
	p, err := registry.PostProject(ctx, 1, "fence repair", 200, time.Now().Add(time.Hour), []int64{200})
	require.NoError(t, err)
	_, err = ledger.SubmitBid(ctx, 2, p.ID, 200, 10, []int64{200})
	require.NoError(t, err)

	// No Redis in tests; reads fall through to the store.
	return NewService(store, nil, logger), store
}

func TestListProjects(t *testing.T) {
	svc, _ := seed(t)

	projects, err := svc.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "fence repair", projects[0].Description)
}

func TestGetProjectWithBids(t *testing.T) {
	svc, _ := seed(t)

	view, err := svc.GetProject(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, view.ID)
	require.Len(t, view.Bids, 1)
	require.Equal(t, 2, view.Bids[0].Bidder)

	_, err = svc.GetProject(context.Background(), 99)
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestEscrowBalanceMissingProject(t *testing.T) {
	svc, _ := seed(t)

	_, err := svc.EscrowBalance(context.Background(), 99)
	require.ErrorIs(t, err, engine.ErrNotFound)
}
