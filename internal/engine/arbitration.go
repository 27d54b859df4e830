package engine

import (
	"context"

	"go.uber.org/zap"

	"bidvault/config"
	"bidvault/internal/events"
	"bidvault/internal/model"
	"bidvault/pkg/metrics"
)

// DisputeArbitration owns dispute records and stakeholder voting. Raising a
// dispute freezes milestone payouts for the project; resolution lifts the
// freeze and applies the outcome.
type DisputeArbitration struct {
	store  Storage
	logger *zap.Logger
	quorum string
}

func NewDisputeArbitration(store Storage, cfg config.EngineConfig, logger *zap.Logger) *DisputeArbitration {
	quorum := cfg.DisputeQuorum
	if quorum == "" {
		quorum = config.QuorumSingle
	}
	return &DisputeArbitration{
		store:  store,
		logger: logger,
		quorum: quorum,
	}
}

// RaiseDispute opens a dispute on behalf of a stakeholder. At most one open
// dispute per project; nothing to dispute before a bidder is selected.
func (a *DisputeArbitration) RaiseDispute(ctx context.Context, caller, projectID int, reason string) (*model.Dispute, error) {
	d := &model.Dispute{
		ProjectID: projectID,
		RaisedBy:  caller,
		Reason:    reason,
		Votes:     map[int]bool{},
	}

	err := a.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireStakeholder(p, caller); err != nil {
			return err
		}
		if !p.InProgress() || p.DisputeRaised {
			return ErrInvalidState
		}

		if err := s.CreateDispute(ctx, d); err != nil {
			return err
		}
		if err := s.SetDisputeRaised(ctx, projectID, true); err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateDispute, int64(d.ID), events.DisputeRaised, events.DisputeRaisedPayload{
			ProjectID: projectID,
			DisputeID: d.ID,
			RaisedBy:  caller,
			Reason:    reason,
		})
	})
	metrics.IncrementEngineOperation("raise_dispute", result(err))
	if err != nil {
		return nil, err
	}

	a.logger.Info("Dispute raised",
		zap.Int("dispute_id", d.ID),
		zap.Int("project_id", projectID),
		zap.Int("raised_by", caller),
	)
	return d, nil
}

// VoteOnDispute records a stakeholder vote and resolves the dispute once the
// configured quorum is met. Under "single" the first vote decides: approval
// releases the freeze, rejection withholds payment without penalizing.
// Under "majority" every stakeholder must vote; a no-majority penalizes the
// contractor and a split resolves as payment-withheld. A terminal dispute
// accepts no further votes.
func (a *DisputeArbitration) VoteOnDispute(ctx context.Context, caller, disputeID int, vote bool) (*model.Dispute, error) {
	var resolved *model.Dispute
	err := a.store.InTx(ctx, func(s Storage) error {
		d, err := s.GetDisputeForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if d.Resolved {
			return ErrAlreadyResolved
		}

		p, err := s.GetProjectForUpdate(ctx, d.ProjectID)
		if err != nil {
			return err
		}
		if err := requireStakeholder(p, caller); err != nil {
			return err
		}
		if d.HasVoted(caller) {
			return ErrDuplicateVote
		}

		if err := s.AddVote(ctx, disputeID, caller, vote); err != nil {
			return err
		}
		d.Votes[caller] = vote

		outcome, done := a.tally(p, d)
		if !done {
			resolved = d
			return nil
		}

		if err := a.applyOutcome(ctx, s, p, d, outcome); err != nil {
			return err
		}
		d.Resolved = true
		d.Outcome = outcome
		resolved = d
		return nil
	})
	metrics.IncrementEngineOperation("vote_on_dispute", result(err))
	if err != nil {
		return nil, err
	}

	if resolved.Resolved {
		a.logger.Info("Dispute resolved",
			zap.Int("dispute_id", resolved.ID),
			zap.Int("project_id", resolved.ProjectID),
			zap.String("outcome", resolved.Outcome),
		)
	}
	return resolved, nil
}

// tally decides whether the votes cast so far meet the quorum and with which
// outcome.
func (a *DisputeArbitration) tally(p *model.Project, d *model.Dispute) (string, bool) {
	yes, no := 0, 0
	for _, v := range d.Votes {
		if v {
			yes++
		} else {
			no++
		}
	}

	if a.quorum == config.QuorumMajority {
		if len(d.Votes) < len(p.Stakeholders()) {
			return "", false
		}
		switch {
		case yes > no:
			return model.OutcomePaymentReleased, true
		case no > yes:
			return model.OutcomeContractorPenalized, true
		default:
			return model.OutcomePaymentWithheld, true
		}
	}

	// Single-vote quorum: the first ballot decides. A lone rejection only
	// withholds; forfeiting the contract takes a majority or the owner's
	// explicit penalty call.
	if yes > 0 {
		return model.OutcomePaymentReleased, true
	}
	return model.OutcomePaymentWithheld, true
}

// applyOutcome clears the freeze and applies the resolution inside the open
// transaction.
func (a *DisputeArbitration) applyOutcome(ctx context.Context, s Storage, p *model.Project, d *model.Dispute, outcome string) error {
	if err := s.ResolveDispute(ctx, d.ID, outcome); err != nil {
		return err
	}

	switch outcome {
	case model.OutcomeContractorPenalized:
		// penalize clears the dispute flag and closes the project.
		forfeited, err := penalize(ctx, s, p)
		if err != nil {
			return err
		}
		if err := s.AppendEvent(ctx, events.AggregateEscrow, int64(p.ID), events.BidderPenalized, events.BidderPenalizedPayload{
			ProjectID: p.ID,
			Bidder:    p.SelectedBidder,
			Forfeited: forfeited,
		}); err != nil {
			return err
		}
	default:
		// Released and withheld both lift the freeze and return the project
		// to Active; funds only ever move through the vault's entry points.
		if err := s.SetDisputeRaised(ctx, p.ID, false); err != nil {
			return err
		}
		p.DisputeRaised = false
	}

	return s.AppendEvent(ctx, events.AggregateDispute, int64(d.ID), events.DisputeResolved, events.DisputeResolvedPayload{
		DisputeID: d.ID,
		ProjectID: p.ID,
		Outcome:   outcome,
	})
}
