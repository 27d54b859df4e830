// Package events defines the routing keys and payloads of every event the
// engine emits. External listeners (the audit worker, UI refresh hooks)
// consume these from the "events" topic exchange; the engine never assumes a
// listener exists.
package events

import "time"

// Routing keys.
const (
	ProjectPosted    = "project.posted"
	BidSubmitted     = "project.bid_submitted"
	BidSelected      = "project.bid_selected"
	DeadlineExtended = "project.deadline_extended"
	ProjectClosed    = "project.closed"
	FundsDeposited   = "escrow.deposited"
	MilestonePaid    = "escrow.milestone_paid"
	BidderPenalized  = "escrow.bidder_penalized"
	DisputeRaised    = "dispute.raised"
	DisputeResolved  = "dispute.resolved"
)

// Aggregate types recorded on outbox rows.
const (
	AggregateProject = "project"
	AggregateEscrow  = "escrow"
	AggregateDispute = "dispute"
)

type ProjectPostedPayload struct {
	ProjectID   int       `json:"project_id"`
	Owner       int       `json:"owner"`
	Description string    `json:"description"`
	Budget      int64     `json:"budget"`
	Deadline    time.Time `json:"deadline"`
}

type BidSubmittedPayload struct {
	ProjectID int   `json:"project_id"`
	BidIndex  int   `json:"bid_index"`
	Bidder    int   `json:"bidder"`
	Amount    int64 `json:"amount"`
}

type BidSelectedPayload struct {
	ProjectID int `json:"project_id"`
	Bidder    int `json:"bidder"`
}

type DeadlineExtendedPayload struct {
	ProjectID   int       `json:"project_id"`
	NewDeadline time.Time `json:"new_deadline"`
}

type ProjectClosedPayload struct {
	ProjectID int `json:"project_id"`
}

type FundsDepositedPayload struct {
	ProjectID int   `json:"project_id"`
	Amount    int64 `json:"amount"`
	From      int   `json:"from"`
}

type MilestonePaidPayload struct {
	ProjectID      int   `json:"project_id"`
	MilestoneIndex int   `json:"milestone_index"`
	Amount         int64 `json:"amount"`
	Recipient      int   `json:"recipient"`
}

type BidderPenalizedPayload struct {
	ProjectID int   `json:"project_id"`
	Bidder    int   `json:"bidder"`
	Forfeited int64 `json:"forfeited"`
}

type DisputeRaisedPayload struct {
	ProjectID int    `json:"project_id"`
	DisputeID int    `json:"dispute_id"`
	RaisedBy  int    `json:"raised_by"`
	Reason    string `json:"reason"`
}

type DisputeResolvedPayload struct {
	DisputeID int    `json:"dispute_id"`
	ProjectID int    `json:"project_id"`
	Outcome   string `json:"outcome"`
}
