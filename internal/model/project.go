package model

import "time"

// NoBidder is the sentinel for a project with no selected contractor.
const NoBidder = 0

// Project is the registry's record of one posted piece of work. Budget and
// milestone amounts are integer base units; the milestone schedule is fixed
// at creation and sums to the budget.
type Project struct {
	ID             int       `json:"id"`
	Owner          int       `json:"owner"`
	Description    string    `json:"description"`
	Budget         int64     `json:"budget"`
	Deadline       time.Time `json:"deadline"`
	Milestones     []int64   `json:"milestones"`
	MilestonePaid  []bool    `json:"milestone_paid"`
	SelectedBidder int       `json:"selected_bidder"`
	Active         bool      `json:"active"`
	DisputeRaised  bool      `json:"dispute_raised"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsOpen reports whether the project still accepts bids.
func (p *Project) IsOpen() bool {
	return p.Active && p.SelectedBidder == NoBidder
}

// InProgress reports whether a contractor is selected and the project is not
// closed.
func (p *Project) InProgress() bool {
	return p.Active && p.SelectedBidder != NoBidder
}

func (p *Project) AllMilestonesPaid() bool {
	for _, paid := range p.MilestonePaid {
		if !paid {
			return false
		}
	}
	return len(p.MilestonePaid) > 0
}

// IsStakeholder reports whether the user may raise or vote on a dispute for
// this project.
func (p *Project) IsStakeholder(userID int) bool {
	if userID == p.Owner {
		return true
	}
	return p.SelectedBidder != NoBidder && userID == p.SelectedBidder
}

// Stakeholders returns the parties entitled to vote on a dispute.
func (p *Project) Stakeholders() []int {
	if p.SelectedBidder == NoBidder {
		return []int{p.Owner}
	}
	return []int{p.Owner, p.SelectedBidder}
}
