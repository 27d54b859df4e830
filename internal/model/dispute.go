package model

import "time"

// Dispute outcomes.
const (
	OutcomePaymentReleased     = "payment-released"
	OutcomePaymentWithheld     = "payment-withheld"
	OutcomeContractorPenalized = "contractor-penalized"
)

type Dispute struct {
	ID        int          `json:"id"`
	ProjectID int          `json:"project_id"`
	RaisedBy  int          `json:"raised_by"`
	Reason    string       `json:"reason"`
	Votes     map[int]bool `json:"votes"`
	Resolved  bool         `json:"resolved"`
	Outcome   string       `json:"outcome"`
	CreatedAt time.Time    `json:"created_at"`
}

// HasVoted reports whether the user already cast a vote.
func (d *Dispute) HasVoted(userID int) bool {
	_, ok := d.Votes[userID]
	return ok
}
