package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bidvault/internal/events"
	"bidvault/internal/model"
	"bidvault/pkg/metrics"
)

// ProjectRegistry owns Project records and their lifecycle:
// Open -> Active -> Closed, with Disputed overlaid by the arbitration
// component. It is the single source of truth for active, selectedBidder and
// milestonePaid.
type ProjectRegistry struct {
	store  Storage
	logger *zap.Logger
}

func NewProjectRegistry(store Storage, logger *zap.Logger) *ProjectRegistry {
	return &ProjectRegistry{store: store, logger: logger}
}

// PostProject creates a project owned by the caller. The milestone schedule
// is validated against the budget here and never changes afterwards.
func (r *ProjectRegistry) PostProject(ctx context.Context, caller int, description string, budget int64, deadline time.Time, milestones []int64) (*model.Project, error) {
	if !validSchedule(milestones, budget) {
		metrics.IncrementEngineOperation("post_project", result(ErrInvalidSchedule))
		return nil, ErrInvalidSchedule
	}
	if !deadline.After(time.Now()) {
		metrics.IncrementEngineOperation("post_project", result(ErrInvalidDeadline))
		return nil, ErrInvalidDeadline
	}

	p := &model.Project{
		Owner:         caller,
		Description:   description,
		Budget:        budget,
		Deadline:      deadline,
		Milestones:    milestones,
		MilestonePaid: make([]bool, len(milestones)),
		Active:        true,
	}

	err := r.store.InTx(ctx, func(s Storage) error {
		if err := s.CreateProject(ctx, p); err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateProject, int64(p.ID), events.ProjectPosted, events.ProjectPostedPayload{
			ProjectID:   p.ID,
			Owner:       p.Owner,
			Description: p.Description,
			Budget:      p.Budget,
			Deadline:    p.Deadline,
		})
	})
	metrics.IncrementEngineOperation("post_project", result(err))
	if err != nil {
		return nil, err
	}

	r.logger.Info("Project posted",
		zap.Int("project_id", p.ID),
		zap.Int("owner", p.Owner),
		zap.Int64("budget", p.Budget),
		zap.Int("milestones", len(p.Milestones)),
	)
	return p, nil
}

// SelectBid binds the chosen bid's contractor to the project and moves it
// from Open to Active. The project's original milestone schedule stays
// binding; only the bidder identity and amount are taken from the bid, so a
// bid whose milestone sum differs from the budget cannot be selected.
func (r *ProjectRegistry) SelectBid(ctx context.Context, caller, projectID, bidIndex int) error {
	var bidder int
	err := r.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, caller); err != nil {
			return err
		}
		if !p.IsOpen() {
			return ErrInvalidState
		}

		bid, err := s.GetBid(ctx, projectID, bidIndex)
		if err != nil {
			return err
		}
		if sum(bid.Milestones) != p.Budget {
			return ErrInvalidSchedule
		}

		bidder = bid.Bidder
		if err := s.SetSelectedBidder(ctx, projectID, bid.Bidder); err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateProject, int64(projectID), events.BidSelected, events.BidSelectedPayload{
			ProjectID: projectID,
			Bidder:    bid.Bidder,
		})
	})
	metrics.IncrementEngineOperation("select_bid", result(err))
	if err != nil {
		return err
	}

	r.logger.Info("Bid selected",
		zap.Int("project_id", projectID),
		zap.Int("bid_index", bidIndex),
		zap.Int("bidder", bidder),
	)
	return nil
}

// ExtendDeadline pushes the deadline strictly forward. Allowed only while
// the project is Open or Active; a closed project or an open dispute blocks
// it.
func (r *ProjectRegistry) ExtendDeadline(ctx context.Context, caller, projectID int, newDeadline time.Time) error {
	err := r.store.InTx(ctx, func(s Storage) error {
		p, err := s.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, caller); err != nil {
			return err
		}
		if !p.Active || p.DisputeRaised {
			return ErrInvalidState
		}
		if !newDeadline.After(p.Deadline) {
			return ErrInvalidDeadline
		}

		if err := s.SetDeadline(ctx, projectID, newDeadline); err != nil {
			return err
		}
		return s.AppendEvent(ctx, events.AggregateProject, int64(projectID), events.DeadlineExtended, events.DeadlineExtendedPayload{
			ProjectID:   projectID,
			NewDeadline: newDeadline,
		})
	})
	metrics.IncrementEngineOperation("extend_deadline", result(err))
	if err != nil {
		return err
	}

	r.logger.Info("Deadline extended",
		zap.Int("project_id", projectID),
		zap.Time("new_deadline", newDeadline),
	)
	return nil
}

// closeProject terminates a project inside an already-open transaction.
// Idempotent: closing a closed project is a no-op and emits nothing.
func closeProject(ctx context.Context, s Storage, p *model.Project) error {
	if !p.Active {
		return nil
	}
	p.Active = false
	if err := s.SetActive(ctx, p.ID, false); err != nil {
		return err
	}
	return s.AppendEvent(ctx, events.AggregateProject, int64(p.ID), events.ProjectClosed, events.ProjectClosedPayload{
		ProjectID: p.ID,
	})
}

func sum(amounts []int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}

// validSchedule reports whether the schedule is non-empty, every amount is
// positive and the amounts sum to total. A non-positive amount would move
// funds backwards on release, so it is rejected at the door.
func validSchedule(milestones []int64, total int64) bool {
	if len(milestones) == 0 {
		return false
	}
	var s int64
	for _, a := range milestones {
		if a <= 0 {
			return false
		}
		s += a
	}
	return s == total
}
