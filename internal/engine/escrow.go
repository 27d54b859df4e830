package engine

import (
	"context"

	"go.uber.org/zap"

	"bidvault/config"
	"bidvault/internal/events"
	"bidvault/internal/model"
	"bidvault/pkg/metrics"
)

// EscrowVault has sole custody of escrowed funds and party balances. Every
// balance mutation in the system goes through Deposit,
// ReleaseMilestonePayment or PenalizeBidder.
type EscrowVault struct {
	store       Storage
	logger      *zap.Logger
	strictOrder bool
}

func NewEscrowVault(store Storage, cfg config.EngineConfig, logger *zap.Logger) *EscrowVault {
	return &EscrowVault{
		store:       store,
		logger:      logger,
		strictOrder: cfg.StrictMilestoneOrder,
	}
}

// Deposit credits the project's escrow. Any caller may fund any project that
// is not closed; no invariant ties the deposit to the budget — under-funding
// only blocks later payouts, over-funding sits in escrow.
func (v *EscrowVault) Deposit(ctx context.Context, caller, projectID int, amount int64) error {
	if amount <= 0 {
		metrics.IncrementEngineOperation("deposit", result(ErrInvalidAmount))
		return ErrInvalidAmount
	}

	err := v.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if !p.Active {
			return ErrInvalidState
		}

		if err := s.CreditEscrow(ctx, projectID, amount); err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateEscrow, int64(projectID), events.FundsDeposited, events.FundsDepositedPayload{
			ProjectID: projectID,
			Amount:    amount,
			From:      caller,
		})
	})
	metrics.IncrementEngineOperation("deposit", result(err))
	if err != nil {
		return err
	}

	metrics.AddEscrowDeposit(amount)
	v.logger.Info("Funds deposited",
		zap.Int("project_id", projectID),
		zap.Int64("amount", amount),
		zap.Int("from", caller),
	)
	return nil
}

// ReleaseMilestonePayment pays one milestone in full to the selected bidder.
// All checks run against current state inside the transaction, so a
// concurrent release of the same milestone fails with AlreadyPaid rather
// than double-paying. Paying the last milestone closes the project.
func (v *EscrowVault) ReleaseMilestonePayment(ctx context.Context, caller, projectID, milestoneIndex int) error {
	var (
		amount    int64
		recipient int
	)
	err := v.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, caller); err != nil {
			return err
		}
		if !p.InProgress() || p.DisputeRaised {
			return ErrInvalidState
		}
		if milestoneIndex < 0 || milestoneIndex >= len(p.Milestones) {
			return ErrInvalidIndex
		}
		if p.MilestonePaid[milestoneIndex] {
			return ErrAlreadyPaid
		}
		if v.strictOrder {
			for i := 0; i < milestoneIndex; i++ {
				if !p.MilestonePaid[i] {
					return ErrInvalidState
				}
			}
		}

		amount = p.Milestones[milestoneIndex]
		recipient = p.SelectedBidder

		balance, err := s.EscrowBalance(ctx, projectID)
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientFunds
		}

		if err := s.DebitEscrow(ctx, projectID, amount); err != nil {
			return err
		}
		if err := s.CreditParty(ctx, recipient, amount); err != nil {
			return err
		}
		if err := s.MarkMilestonePaid(ctx, projectID, milestoneIndex); err != nil {
			return err
		}
		p.MilestonePaid[milestoneIndex] = true

		if err := s.AppendEvent(ctx, events.AggregateEscrow, int64(projectID), events.MilestonePaid, events.MilestonePaidPayload{
			ProjectID:      projectID,
			MilestoneIndex: milestoneIndex,
			Amount:         amount,
			Recipient:      recipient,
		}); err != nil {
			return err
		}

		if p.AllMilestonesPaid() {
			return closeProject(ctx, s, p)
		}
		return nil
	})
	metrics.IncrementEngineOperation("release_milestone", result(err))
	if err != nil {
		return err
	}

	metrics.MilestonePaidCount.Inc()
	v.logger.Info("Milestone paid",
		zap.Int("project_id", projectID),
		zap.Int("milestone_index", milestoneIndex),
		zap.Int64("amount", amount),
		zap.Int("recipient", recipient),
	)
	return nil
}

// PenalizeBidder forfeits the selected bidder's claim to the remaining
// milestones, moves the remaining escrow to the owner's withdrawable balance
// and closes the project. Valid while a contractor is selected and the
// project is Active or Disputed; an open dispute is resolved as
// contractor-penalized so it cannot outlive the project.
func (v *EscrowVault) PenalizeBidder(ctx context.Context, caller, projectID int) error {
	var (
		bidder    int
		forfeited int64
	)
	err := v.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, caller); err != nil {
			return err
		}
		if !p.InProgress() {
			return ErrInvalidState
		}

		bidder = p.SelectedBidder
		forfeited, err = penalize(ctx, s, p)
		if err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateEscrow, int64(projectID), events.BidderPenalized, events.BidderPenalizedPayload{
			ProjectID: projectID,
			Bidder:    bidder,
			Forfeited: forfeited,
		})
	})
	metrics.IncrementEngineOperation("penalize_bidder", result(err))
	if err != nil {
		return err
	}

	v.logger.Info("Bidder penalized",
		zap.Int("project_id", projectID),
		zap.Int("bidder", bidder),
		zap.Int64("forfeited", forfeited),
	)
	return nil
}

// penalize performs the shared penalty mechanics inside an open transaction:
// remaining escrow moves to the owner's balance, any open dispute resolves
// as contractor-penalized, the project closes. Returns the forfeited amount.
func penalize(ctx context.Context, s Storage, p *model.Project) (int64, error) {
	balance, err := s.EscrowBalance(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	if balance > 0 {
		if err := s.DebitEscrow(ctx, p.ID, balance); err != nil {
			return 0, err
		}
		if err := s.CreditParty(ctx, p.Owner, balance); err != nil {
			return 0, err
		}
	}

	if p.DisputeRaised {
		if err := s.SetDisputeRaised(ctx, p.ID, false); err != nil {
			return 0, err
		}
		p.DisputeRaised = false

		d, err := s.GetOpenDispute(ctx, p.ID)
		if err != nil {
			return 0, err
		}
		if d != nil {
			if err := s.ResolveDispute(ctx, d.ID, model.OutcomeContractorPenalized); err != nil {
				return 0, err
			}
			if err := s.AppendEvent(ctx, events.AggregateDispute, int64(d.ID), events.DisputeResolved, events.DisputeResolvedPayload{
				DisputeID: d.ID,
				ProjectID: p.ID,
				Outcome:   model.OutcomeContractorPenalized,
			}); err != nil {
				return 0, err
			}
		}
	}

	if err := closeProject(ctx, s, p); err != nil {
		return 0, err
	}
	return balance, nil
}
