package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bidvault/internal/events"
	"bidvault/internal/model"
	"bidvault/pkg/metrics"
)

// BidLedger owns the bids submitted against open projects. Bids are
// append-only; once the owning project leaves Open, submission is rejected
// but history stays readable.
type BidLedger struct {
	store  Storage
	logger *zap.Logger
}

func NewBidLedger(store Storage, logger *zap.Logger) *BidLedger {
	return &BidLedger{store: store, logger: logger}
}

// SubmitBid appends a bid and returns its index within the project. The
// deadline is checked lazily here: a project whose deadline has passed no
// longer accepts bids, without any background timer flipping state.
// One active bid per bidder per project; a second submission is rejected.
func (l *BidLedger) SubmitBid(ctx context.Context, caller, projectID int, amount int64, completionDays int, milestones []int64) (*model.Bid, error) {
	if !validSchedule(milestones, amount) {
		metrics.IncrementEngineOperation("submit_bid", result(ErrInvalidSchedule))
		return nil, ErrInvalidSchedule
	}

	bid := &model.Bid{
		ProjectID:      projectID,
		Bidder:         caller,
		Amount:         amount,
		CompletionDays: completionDays,
		Milestones:     milestones,
	}

	err := l.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireNotOwner(p, caller); err != nil {
			return err
		}
		if !p.IsOpen() || !time.Now().Before(p.Deadline) {
			return ErrInvalidState
		}

		dup, err := s.HasBid(ctx, projectID, caller)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateBid
		}

		if err := s.CreateBid(ctx, bid); err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateProject, int64(projectID), events.BidSubmitted, events.BidSubmittedPayload{
			ProjectID: projectID,
			BidIndex:  bid.Index,
			Bidder:    bid.Bidder,
			Amount:    bid.Amount,
		})
	})
	metrics.IncrementEngineOperation("submit_bid", result(err))
	if err != nil {
		return nil, err
	}

	l.logger.Info("Bid submitted",
		zap.Int("project_id", projectID),
		zap.Int("bid_index", bid.Index),
		zap.Int("bidder", bid.Bidder),
		zap.Int64("amount", bid.Amount),
	)
	return bid, nil
}

// Bids lists a project's bids in submission order. Read-only, valid in any
// project state.
func (l *BidLedger) Bids(ctx context.Context, projectID int) ([]model.Bid, error) {
	if _, err := l.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return l.store.ListBids(ctx, projectID)
}
